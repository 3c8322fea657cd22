package app

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"serotonyl.ru/garden-bot/internal/config"
	"serotonyl.ru/garden-bot/internal/features/garden"
)

func TestEngineOptions(t *testing.T) {
	opts, err := EngineOptions(&config.Config{
		AppEnv:            "production",
		GardenDailyGating: true,
		GardenHarvestMode: "at_least",
	})
	require.NoError(t, err)
	assert.Equal(t, garden.DefaultOptions(), opts)

	opts, err = EngineOptions(&config.Config{
		AppEnv:            "development",
		GardenHarvestMode: "exact",
	})
	require.NoError(t, err)
	assert.Equal(t, garden.Options{HarvestMode: garden.HarvestExactMatch, StrictSlots: true}, opts)

	opts, err = EngineOptions(&config.Config{GardenHarvestMode: "at_least"})
	require.NoError(t, err)
	assert.False(t, opts.StrictSlots, "строгий режим только при явном APP_ENV=development")

	_, err = EngineOptions(&config.Config{GardenHarvestMode: "sometimes"})
	assert.Error(t, err)
}
