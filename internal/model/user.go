// Package model defines the data structures used throughout the application.
//
// JSON and column names keep the Portuguese field names the web client and
// the database schema already use (titulo, descricao, data_vencimento...),
// while the Go identifiers stay in English.
package model

// User is a registered account. Email is the identity carried in the
// token's subject claim.
type User struct {
	ID           int64  `json:"id"    db:"id"`
	Email        string `json:"email" db:"email"`
	PasswordHash string `json:"-"     db:"password_hash"`
}
