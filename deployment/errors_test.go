package deployment

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestDeploymentFailureRoundTrip ensures correct error formatting and unwrapping for DeploymentFailure.
func TestDeploymentFailureRoundTrip(t *testing.T) {
	cause := errors.New("insufficient funds for gas * price + value")
	err := NewDeploymentFailure("Vault", StepDeploy, cause)

	// tests the error message formatting.
	expectedErrMsg := fmt.Sprintf("deployment of Vault failed at deploy step: %v", cause)
	assert.Equal(t, expectedErrMsg, err.Error(), "the error message should be correctly formatted")

	// tests unwrapping through additional wrapping.
	wrapped := fmt.Errorf("run failed: %w", err)
	assert.ErrorIs(t, wrapped, cause)
	assert.True(t, IsDeploymentFailure(wrapped), "IsDeploymentFailure should return true for wrapped DeploymentFailure error")

	// test IsDeploymentFailure with a different error type.
	assert.False(t, IsDeploymentFailure(cause), "IsDeploymentFailure should return false for non-DeploymentFailure error")
}
