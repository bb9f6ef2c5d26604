package gormrepo_test

import (
	"testing"

	"github.com/dom/bloghub/internal/repository/gormrepo"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm/logger"
)

func TestLogLevel(t *testing.T) {
	tests := []struct {
		level string
		want  logger.LogLevel
	}{
		{"debug", logger.Info},
		{"DEBUG", logger.Info},
		{"info", logger.Warn},
		{"", logger.Warn},
		{"error", logger.Error},
		{"disabled", logger.Silent},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			assert.Equal(t, tt.want, gormrepo.LogLevel(tt.level))
		})
	}
}

func TestOpen_UnknownDriver(t *testing.T) {
	_, err := gormrepo.Open("mysql", "whatever", logger.Silent)
	assert.Error(t, err)
}
