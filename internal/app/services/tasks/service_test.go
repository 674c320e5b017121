package tasks

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/credittrack/credittrack/internal/app/domain/user"
	"github.com/credittrack/credittrack/internal/app/storage/memory"
	"github.com/credittrack/credittrack/internal/errors"
)

func TestServiceCreateConsumesCredits(t *testing.T) {
	store := memory.New()
	svc := New(store, nil)
	ctx := context.Background()

	_, err := store.CreateUser(ctx, user.User{Username: "bar", Credits: 2})
	require.NoError(t, err)

	completed := true
	created, err := svc.Create(ctx, "bar", &completed)
	require.NoError(t, err)
	require.NotNil(t, created.Completed)
	assert.True(t, *created.Completed)

	_, err = svc.Create(ctx, "bar", nil)
	require.NoError(t, err)

	_, err = svc.Create(ctx, "bar", nil)
	assert.True(t, errors.IsCode(err, errors.CodeLimitExceeded))

	list, err := svc.List(ctx, "bar")
	require.NoError(t, err)
	assert.Len(t, list, 2)
	assert.Nil(t, list[1].Completed)
}

func TestServiceCreateUnknownUser(t *testing.T) {
	svc := New(memory.New(), nil)

	_, err := svc.Create(context.Background(), "nobody", nil)
	assert.True(t, errors.IsCode(err, errors.CodeNotFound))
}
