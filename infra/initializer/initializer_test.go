package initializer

import (
	"bytes"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ticketcore/promoengine/infra/repository/memory"
	"github.com/ticketcore/promoengine/pkg/config"
	"github.com/ticketcore/promoengine/pkg/money"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestInitUnitOfWork_EmptyURLUsesMemoryStore(t *testing.T) {
	uow, closer, err := initUnitOfWork(&config.App{DB: &config.DB{}}, discardLogger())
	require.NoError(t, err)
	assert.Nil(t, closer)
	assert.IsType(t, &memory.UoW{}, uow)
}

func TestInitInvalidator_DisabledWithoutURL(t *testing.T) {
	inv, client, err := initInvalidator(&config.App{Redis: &config.Redis{}}, discardLogger())
	require.NoError(t, err)
	assert.Nil(t, inv)
	assert.Nil(t, client)
}

func TestInitInvalidator_MalformedURLFails(t *testing.T) {
	_, _, err := initInvalidator(&config.App{Redis: &config.Redis{URL: "http://localhost:6379"}}, discardLogger())
	require.Error(t, err)
}

func TestInitInvalidator_UnreachableServerFallsBack(t *testing.T) {
	cfg := &config.App{Redis: &config.Redis{URL: "redis://127.0.0.1:1/0", DialTimeout: 200 * time.Millisecond}}

	inv, client, err := initInvalidator(cfg, discardLogger())
	require.NoError(t, err)
	assert.Nil(t, inv)
	assert.Nil(t, client)
}

func TestLoadRegistry(t *testing.T) {
	reg, err := loadRegistry(nil, discardLogger())
	require.NoError(t, err)
	assert.True(t, reg.IsValid(money.NGN))

	path := filepath.Join(t.TempDir(), "meta.csv")
	csv := "code,name,symbol,decimals,country,region,active\n" +
		"NGN,Nigerian Naira,₦,2,Nigeria,Africa,true\n" +
		"USD,US Dollar,$,2,United States,North America,false\n"
	require.NoError(t, os.WriteFile(path, []byte(csv), 0o600))

	reg, err = loadRegistry(&config.Currency{MetaFile: path}, discardLogger())
	require.NoError(t, err)
	assert.Equal(t, 1, reg.Count())
	assert.False(t, reg.IsValid(money.USD))

	_, err = loadRegistry(&config.Currency{MetaFile: filepath.Join(t.TempDir(), "missing.csv")}, discardLogger())
	require.Error(t, err)
}

func TestInitializeDependencies_InMemory(t *testing.T) {
	cfg := &config.App{
		Env:      "test",
		Log:      &config.Log{Format: "json"},
		DB:       &config.DB{},
		Redis:    &config.Redis{},
		Currency: &config.Currency{ConfigCacheTTL: time.Second},
	}
	t.Cleanup(func() { slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, nil))) })

	deps, err := InitializeDependencies(cfg)
	require.NoError(t, err)
	assert.NotNil(t, deps.Uow)
	assert.NotNil(t, deps.ConfigCache)
	assert.NotNil(t, deps.Audit)
	assert.Nil(t, deps.Invalidator)
	assert.NoError(t, deps.Close())
}

func TestNewLogger_FormatsAndLevels(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, &config.Log{Format: "json", Level: 4})
	logger.Info("hidden")
	logger.Warn("shown", "service", "promo-code")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, `"msg":"shown"`)
	assert.Contains(t, out, `"service":"promo-code"`)

	buf.Reset()
	newLogger(&buf, &config.Log{Format: "unknown"}).Info("plain")
	assert.Contains(t, buf.String(), "plain")
}
