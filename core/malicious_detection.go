package core

// LoggingMaliciousDetection is the node's stand-in MaliciousDetection
// collaborator: it records every atomic-commitment failure so an operator
// or a future investigation pipeline can review which cross-validator(s)
// diverged. Root-causing and sanctioning malicious nodes
// is explicitly out of scope.

import "github.com/sirupsen/logrus"

type LoggingMaliciousDetection struct {
	logger *logrus.Logger
}

// NewLoggingMaliciousDetection returns a MaliciousDetection that only logs.
func NewLoggingMaliciousDetection(logger *logrus.Logger) *LoggingMaliciousDetection {
	if logger == nil {
		logger = logrus.New()
	}
	return &LoggingMaliciousDetection{logger: logger}
}

func (d *LoggingMaliciousDetection) Notify(ctx *ValidationContext, reason error) {
	d.logger.WithFields(logrus.Fields{
		"tx_address": ctx.TxAddress.Hex(),
		"reason":     reason,
	}).Warn("atomic commitment not reached")
}
