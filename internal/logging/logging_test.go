package logging

import (
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

func TestNew(t *testing.T) {
	debug := New(true)
	assert.Equal(t, logrus.DebugLevel, debug.GetLevel())
	assert.IsType(t, &logrus.TextFormatter{}, debug.Formatter)

	prod := New(false)
	assert.Equal(t, logrus.InfoLevel, prod.GetLevel())
	assert.IsType(t, &logrus.JSONFormatter{}, prod.Formatter)
}

func TestOrDiscard(t *testing.T) {
	l := New(false)
	assert.Same(t, l, OrDiscard(l))
	assert.NotNil(t, OrDiscard(nil))
	assert.False(t, Discard().IsLevelEnabled(logrus.ErrorLevel))
}
