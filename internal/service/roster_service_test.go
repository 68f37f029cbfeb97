package service

import (
	"alcyxob/coach-app/internal/domain"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestAddClientByEmail(t *testing.T) {
	userRepo := newFakeUserRepo()
	svc := NewRosterService(userRepo)
	ctx := context.Background()

	trainerID, err := userRepo.Create(ctx, &domain.User{Email: "coach@example.com", Role: domain.RoleTrainer})
	require.NoError(t, err)
	_, err = userRepo.Create(ctx, &domain.User{Email: "client@example.com", Role: domain.RoleClient})
	require.NoError(t, err)

	client, err := svc.AddClientByEmail(ctx, trainerID, "client@example.com")
	require.NoError(t, err)
	require.NotNil(t, client.TrainerID)
	assert.Equal(t, trainerID, *client.TrainerID)

	roster, err := svc.GetManagedClients(ctx, trainerID)
	require.NoError(t, err)
	require.Len(t, roster, 1)
	assert.Equal(t, "client@example.com", roster[0].Email)
	assert.Empty(t, roster[0].PasswordHash)

	// Re-adding the same client is a no-op success.
	_, err = svc.AddClientByEmail(ctx, trainerID, "client@example.com")
	assert.NoError(t, err)
}

func TestAddClientByEmailRejections(t *testing.T) {
	userRepo := newFakeUserRepo()
	svc := NewRosterService(userRepo)
	ctx := context.Background()

	trainerID, err := userRepo.Create(ctx, &domain.User{Email: "coach@example.com", Role: domain.RoleTrainer})
	require.NoError(t, err)
	otherTrainerID, err := userRepo.Create(ctx, &domain.User{Email: "other@example.com", Role: domain.RoleTrainer})
	require.NoError(t, err)
	_, err = userRepo.Create(ctx, &domain.User{Email: "taken@example.com", Role: domain.RoleClient, TrainerID: &otherTrainerID})
	require.NoError(t, err)

	_, err = svc.AddClientByEmail(ctx, trainerID, "missing@example.com")
	assert.ErrorIs(t, err, ErrClientNotFound)

	_, err = svc.AddClientByEmail(ctx, trainerID, "other@example.com")
	assert.ErrorIs(t, err, ErrClientNotRole)

	_, err = svc.AddClientByEmail(ctx, trainerID, "taken@example.com")
	assert.ErrorIs(t, err, ErrClientAlreadyAssigned)

	_, err = svc.AddClientByEmail(ctx, primitive.NilObjectID, "client@example.com")
	assert.Error(t, err)
}
