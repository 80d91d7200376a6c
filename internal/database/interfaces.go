package database

import (
	"context"

	"chat-server/internal/models"
)

// UserRepository is the only persistent collaborator the server needs:
// channel state, presence and messages are in-memory authority and never
// touch the database.
type UserRepository interface {
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, id int) (*models.User, error)
	CreateUser(ctx context.Context, req *models.RegisterRequest) (*models.User, error)
}

type Database interface {
	UserRepository
	Close() error
}
