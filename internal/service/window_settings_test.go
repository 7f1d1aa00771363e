package service_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"passbook/internal/service"
)

func TestWindowSettings_DefaultsWhenUnset(t *testing.T) {
	svc := service.NewWindowSettingsService(newMemoryKV())
	size := svc.LoadWindowSize(context.Background())
	assert.Equal(t, service.WindowSize{Width: service.DefaultWindowWidth, Height: service.DefaultWindowHeight}, size)
}

func TestWindowSettings_RoundTrip(t *testing.T) {
	ctx := context.Background()
	svc := service.NewWindowSettingsService(newMemoryKV())

	require.NoError(t, svc.SaveWindowSize(ctx, 640, 900))
	assert.Equal(t, service.WindowSize{Width: 640, Height: 900}, svc.LoadWindowSize(ctx))
}

func TestWindowSettings_TooSmallFallsBack(t *testing.T) {
	ctx := context.Background()
	svc := service.NewWindowSettingsService(newMemoryKV())

	require.NoError(t, svc.SaveWindowSize(ctx, 100, 900))
	assert.Equal(t, service.WindowSize{Width: service.DefaultWindowWidth, Height: 900}, svc.LoadWindowSize(ctx))
}

func TestWindowSettings_NoStore(t *testing.T) {
	svc := service.NewWindowSettingsService(nil)
	assert.Error(t, svc.SaveWindowSize(context.Background(), 500, 800))
	assert.Equal(t, service.DefaultWindowWidth, svc.LoadWindowSize(context.Background()).Width)
}
