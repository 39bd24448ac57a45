package domain

import "time"

// SessionRecord es el registro de sesion que los servicios comparten via el
// SessionStore. El token es opaco y vive solo como clave del store, nunca
// dentro del registro.
type SessionRecord struct {
	Email     string    `json:"email"`
	Name      string    `json:"name,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
