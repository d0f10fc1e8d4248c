/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package googleexecutor

import (
	"errors"
	"strings"

	"chainguard.dev/codeagent/agents/executor/retry"
	"google.golang.org/genai"
)

// isRetryableGeminiError matches quota, overload and transient server errors.
// Both backends surface genai.APIError for HTTP failures; the string checks
// cover errors raised below the SDK.
func isRetryableGeminiError(err error) bool {
	if err == nil {
		return false
	}
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return retry.TransientStatus(apiErr.Code)
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) {
		return retry.TransientStatus(apiErrPtr.Code)
	}
	msg := err.Error()
	for _, s := range []string{"RESOURCE_EXHAUSTED", "Resource exhausted", "429", "rate limit", "quota exceeded", "Overloaded", "503", "UNAVAILABLE"} {
		if strings.Contains(msg, s) {
			return true
		}
	}
	return false
}
