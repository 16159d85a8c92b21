// Package logging builds the application-wide zap logger.
package logging

import "go.uber.org/zap"

// New returns a logger configured for the given environment. Development
// gets the human-readable console encoder, everything else structured JSON.
func New(environment string) (*zap.Logger, error) {
	if environment == "development" {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
