package firebase

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitFirebaseRequiresCredentials(t *testing.T) {
	_, err := InitFirebase(context.Background(), "", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "credentials path not provided")

	missing := filepath.Join(t.TempDir(), "firebase_credentials.json")
	_, err = InitFirebase(context.Background(), missing, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "credentials file not found")
}
