package auth

import (
	"context"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type adminsFile struct {
	Admins []RegisterAdminInput `yaml:"admins"`
}

// SeedAdminsFromFile registers every admin listed in the YAML file at path
// that does not exist yet. A missing file is not an error.
func (s *Service) SeedAdminsFromFile(ctx context.Context, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			s.logger.WarnContext(ctx, "admin seed file not found", "path", path)
			return nil
		}
		return err
	}
	var af adminsFile
	if err := yaml.Unmarshal(data, &af); err != nil {
		return fmt.Errorf("parse admin seed: %w", err)
	}
	for _, in := range af.Admins {
		if in.Email == "" || in.Password == "" {
			continue
		}
		if _, err := s.admins.GetByEmail(ctx, in.Email); err == nil {
			continue
		} else if !errors.Is(err, ErrAccountNotFound) {
			return err
		}
		if _, err := s.RegisterAdmin(ctx, in); err != nil {
			return fmt.Errorf("seed admin %s: %w", in.Email, err)
		}
	}
	return nil
}
