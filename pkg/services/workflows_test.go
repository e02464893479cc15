package services

import (
	"context"
	"errors"
	"testing"

	"github.com/dukex/propflow/pkg/mocks"
	"github.com/dukex/propflow/pkg/persistence/file"
	"github.com/dukex/propflow/pkg/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestWorkflows_HealthCheck(t *testing.T) {
	tests := []struct {
		name        string
		service     func(t *testing.T) *Workflows
		wantHealthy bool
		wantMessage string
	}{
		{
			name: "file persistence",
			service: func(t *testing.T) *Workflows {
				return NewWorkflows(file.NewPersistence(nil, t.TempDir()))
			},
			wantHealthy: true,
			wantMessage: "Persistence layer is healthy",
		},
		{
			name: "no persistence",
			service: func(*testing.T) *Workflows {
				return NewWorkflows(nil)
			},
			wantMessage: "Persistence layer not initialized",
		},
		{
			name: "unhealthy persistence",
			service: func(*testing.T) *Workflows {
				p := mocks.NewMockPersistence()
				p.On("HealthCheck", mock.Anything).Return(errors.New("connection refused"))

				return NewWorkflows(p)
			},
			wantMessage: "Persistence layer is unhealthy: connection refused",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			message, healthy := tt.service(t).HealthCheck(context.Background())

			assert.Equal(t, tt.wantHealthy, healthy)
			assert.Equal(t, tt.wantMessage, message)
		})
	}
}

func TestWorkflows_ListGetDelete(t *testing.T) {
	p := file.NewPersistence(nil, t.TempDir())
	service := NewWorkflows(p)
	ctx := context.Background()

	list, err := service.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)

	id, err := p.WorkflowRepository().Save(ctx, testutil.CreateTestRecord())
	require.NoError(t, err)

	list, err = service.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, id, *list[0].ID)

	stored, err := service.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Test Workflow", stored.Name)

	require.NoError(t, service.Delete(ctx, id))

	_, err = service.Get(ctx, id)
	assert.True(t, IsNotFound(err))

	err = service.Delete(ctx, id)
	assert.True(t, IsNotFound(err))
}
