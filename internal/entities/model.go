package entities

import "time"

// Entity is a tenant organization. JSON names follow the dashboard's
// existing wire format.
type Entity struct {
	ID         int64     `json:"id"`
	Name       string    `json:"nome"`
	Email      string    `json:"email"`
	CNPJ       string    `json:"cnpj"`
	Phone      string    `json:"telefone1"`
	Mobile     string    `json:"celular1"`
	ZipCode    string    `json:"cep"`
	Street     string    `json:"logradouro"`
	Number     string    `json:"numero"`
	Complement string    `json:"complemento"`
	District   string    `json:"bairro"`
	City       string    `json:"cidade"`
	State      string    `json:"uf"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// SignUp is the payload for creating an entity together with its login.
type SignUp struct {
	Entity
	UserName     string `json:"usuario_nome"`
	UserEmail    string `json:"usuario_email"`
	UserPassword string `json:"usuario_senha"`
}
