package main

import (
	"testing"

	"go.uber.org/zap/zaptest"
)

func TestSampleDefinitionIsValid(t *testing.T) {
	def := sampleDefinition()
	result := def.Validate()
	if !result.Valid {
		t.Fatalf("expected sample definition to validate, got errors: %v", result.Errors)
	}
}

func TestRunCompletesWorkflow(t *testing.T) {
	logger := zaptest.NewLogger(t).Sugar()
	if err := run(logger, "Unit Test Document", false); err != nil {
		t.Fatalf("run: %v", err)
	}
}
