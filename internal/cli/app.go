// Package cli implements the orgmeet command-line client.
package cli

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"golang.org/x/term"

	"orgmeet/internal/client"
)

// readPassword is a test seam for term.ReadPassword.
var readPassword = func() ([]byte, error) {
	return term.ReadPassword(int(os.Stdin.Fd()))
}

const usage = `usage: orgmeet [-api URL] [-cache PATH] <command> [flags]

commands:
  login [-email EMAIL]       authenticate and store the session
  logout                     forget the session and cached data
  whoami                     show the logged-in account
  entities                   list entities (admins only)
  meetings [-entity ID]      list an entity's meetings
  agenda -meeting ID         list a meeting's agenda
`

type App struct {
	Sessions *client.SessionStore
	Repo     *client.FallbackRepository
	API      *client.API
	In       *bufio.Reader
	Out      io.Writer
	Err      io.Writer
}

// Run executes one command and returns the process exit code.
func (a *App) Run(ctx context.Context, args []string) int {
	if len(args) == 0 {
		fmt.Fprint(a.Err, usage)
		return 2
	}
	var err error
	switch cmd, rest := args[0], args[1:]; cmd {
	case "login":
		err = a.login(ctx, rest)
	case "logout":
		err = a.logout(ctx)
	case "whoami":
		err = a.whoami(ctx)
	case "entities":
		err = a.entities(ctx)
	case "meetings":
		err = a.meetings(ctx, rest)
	case "agenda":
		err = a.agenda(ctx, rest)
	case "help", "-h", "--help":
		fmt.Fprint(a.Out, usage)
		return 0
	default:
		fmt.Fprintf(a.Err, "unknown command %q\n\n%s", cmd, usage)
		return 2
	}
	if err != nil {
		if errors.Is(err, client.ErrSessionInvalid) {
			if cerr := a.Sessions.Clear(ctx); cerr != nil {
				fmt.Fprintln(a.Err, "error: clear session:", cerr)
			}
		}
		fmt.Fprintln(a.Err, "error:", describe(err))
		return 1
	}
	return 0
}

func describe(err error) string {
	var se *client.StatusError
	switch {
	case errors.Is(err, client.ErrNoSession):
		return "not logged in, run `orgmeet login`"
	case errors.Is(err, client.ErrSessionInvalid):
		return "session expired, run `orgmeet login`"
	case errors.Is(err, client.ErrInvalidCredentials):
		return "invalid email or password"
	case errors.As(err, &se):
		return se.Message
	}
	return err.Error()
}

func (a *App) login(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("login", flag.ContinueOnError)
	fs.SetOutput(a.Err)
	email := fs.String("email", "", "account email")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *email == "" {
		fmt.Fprint(a.Out, "Email: ")
		line, err := a.In.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return err
		}
		*email = strings.TrimSpace(line)
	}
	fmt.Fprint(a.Out, "Password: ")
	pw, err := readPassword()
	fmt.Fprintln(a.Out)
	if err != nil {
		return fmt.Errorf("read password: %w", err)
	}

	sess, err := a.API.Login(ctx, *email, string(pw))
	if err != nil {
		return err
	}
	if err := a.Sessions.Save(ctx, sess); err != nil {
		return err
	}
	fmt.Fprintf(a.Out, "Logged in as %s (%s)\n", sess.User.Email, sess.User.Role)
	return nil
}

func (a *App) logout(ctx context.Context) error {
	if err := a.Sessions.Clear(ctx); err != nil {
		return err
	}
	fmt.Fprintln(a.Out, "Logged out")
	return nil
}

func (a *App) whoami(ctx context.Context) error {
	sess, err := a.Sessions.Load(ctx)
	if err != nil {
		return err
	}
	res, err := a.Repo.Me(ctx, sess)
	if err != nil {
		return err
	}
	a.noteStale(res.Stale, res.FetchedAt)
	fmt.Fprintf(a.Out, "%s <%s>\nrole: %s\n", sess.User.Name, sess.User.Email, sess.User.Role)
	if sess.User.EntityID != nil {
		fmt.Fprintf(a.Out, "entity: %d\n", *sess.User.EntityID)
	}
	return nil
}

func (a *App) entities(ctx context.Context) error {
	sess, err := a.Sessions.Load(ctx)
	if err != nil {
		return err
	}
	res, err := a.Repo.Entities(ctx, sess)
	if err != nil {
		return err
	}
	a.noteStale(res.Stale, res.FetchedAt)
	tw := tabwriter.NewWriter(a.Out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tEMAIL\tCITY")
	for _, e := range res.Data {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", e.ID, e.Name, e.Email, cityLine(e.City, e.State))
	}
	return tw.Flush()
}

func cityLine(city, state string) string {
	if state == "" {
		return city
	}
	return city + "/" + state
}

func (a *App) meetings(ctx context.Context, args []string) error {
	sess, err := a.Sessions.Load(ctx)
	if err != nil {
		return err
	}
	fs := flag.NewFlagSet("meetings", flag.ContinueOnError)
	fs.SetOutput(a.Err)
	var def int64
	if sess.User.EntityID != nil {
		def = *sess.User.EntityID
	}
	entityID := fs.Int64("entity", def, "entity id (defaults to your own entity)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *entityID <= 0 {
		return errors.New("-entity is required")
	}

	res, err := a.Repo.Meetings(ctx, sess, *entityID)
	if err != nil {
		return err
	}
	a.noteStale(res.Stale, res.FetchedAt)
	tw := tabwriter.NewWriter(a.Out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSTART\tTITLE\tLOCATION")
	for _, m := range res.Data {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", m.ID, m.StartDate.Local().Format("2006-01-02 15:04"), m.Title, m.Location)
	}
	return tw.Flush()
}

func (a *App) agenda(ctx context.Context, args []string) error {
	sess, err := a.Sessions.Load(ctx)
	if err != nil {
		return err
	}
	fs := flag.NewFlagSet("agenda", flag.ContinueOnError)
	fs.SetOutput(a.Err)
	meetingID := fs.Int64("meeting", 0, "meeting id")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *meetingID <= 0 {
		return errors.New("-meeting is required")
	}

	res, err := a.Repo.Agenda(ctx, sess, *meetingID)
	if err != nil {
		return err
	}
	a.noteStale(res.Stale, res.FetchedAt)
	for _, item := range res.Data {
		fmt.Fprintf(a.Out, "%2d. %s\n", item.Order, item.Description)
	}
	return nil
}

func (a *App) noteStale(stale bool, fetchedAt time.Time) {
	if stale {
		fmt.Fprintf(a.Err, "server unreachable, showing data cached at %s\n", fetchedAt.Local().Format(time.RFC1123))
	}
}
