package config

import (
	"testing"
	"time"

	"retrain-pipeline/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setBaseEnv(t *testing.T) {
	t.Setenv("ENV_FILE", "")
	t.Setenv("AWS_REGION", "us-west-2")
	t.Setenv("MODEL_PREFIX", "demand")
	t.Setenv("INTERVAL", "7")
	t.Setenv("BUCKET", "ml-bucket")
}

func TestLoadDefaults(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("AWS_CALL_TIMEOUT", "")
	t.Setenv("PROBE_CONCURRENCY", "")
	t.Setenv("SLACK_API_URL", "")
	t.Setenv("NOTIFY_ENABLED", "")
	t.Setenv("ENABLED", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "us-west-2", cfg.AWSRegion)
	assert.Equal(t, 7, cfg.IntervalDays)
	assert.Equal(t, 10*time.Second, cfg.CallTimeout)
	assert.Equal(t, 4, cfg.ProbeConcurrency)
	assert.Equal(t, defaultSlackAPIURL, cfg.SlackAPIURL)
	assert.False(t, cfg.NotifyEnabled)
	assert.NotEmpty(t, cfg.InstanceID)
	assert.NoError(t, cfg.Validate(model.StepCheckData))
}

func TestLoadLegacyEnabledKey(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("NOTIFY_ENABLED", "")
	t.Setenv("ENABLED", "True")

	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.NotifyEnabled)
}

func TestLoadInvalidValue(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("INTERVAL", "seven")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "INTERVAL")
}

func TestValidateReportsAllMissingKeys(t *testing.T) {
	cfg := Config{AWSRegion: "us-east-1"}

	err := cfg.Validate(model.StepStartTraining)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "FEATURE_DIM")
	assert.Contains(t, err.Error(), "TRAINING_INSTANCE_TYPE")
	assert.Contains(t, err.Error(), "SAGEMAKER_ROLE")

	err = cfg.Validate(model.StepDeployModel)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "EXECUTION_ROLE")

	assert.NoError(t, cfg.Validate(model.StepGetStatus))
	assert.NoError(t, cfg.Validate(model.StepUpdateWatermark))
}

func TestValidateNotifyOnlyWhenEnabled(t *testing.T) {
	cfg := Config{AWSRegion: "us-east-1"}
	assert.NoError(t, cfg.Validate(model.StepNotify))

	cfg.NotifyEnabled = true
	err := cfg.Validate(model.StepNotify)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ACCESS_TOKEN")
	assert.Contains(t, err.Error(), "CHANNEL")
}

func TestValidateUnknownStep(t *testing.T) {
	cfg := Config{AWSRegion: "us-east-1"}
	assert.Error(t, cfg.Validate("train_harder"))

	err := cfg.Validate("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "HANDLER")
}
