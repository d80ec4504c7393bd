package account

import (
	"context"

	"github.com/google/uuid"
)

type LoginRepository interface {
	Create(ctx context.Context, l *Login) error
	GetByUsername(ctx context.Context, username string) (*Login, error)
	UsernameExists(ctx context.Context, username string) (bool, error)
	StaffProfile(ctx context.Context, staffID uuid.UUID) (*StaffProfile, error)
	PatientProfile(ctx context.Context, patientID uuid.UUID) (*PatientProfile, error)
}
