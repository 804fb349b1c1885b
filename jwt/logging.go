package jwt

import "github.com/sirupsen/logrus"

// logger is the package-wide diagnostic logger. It is never nil; callers
// that want their own sink call SetLogger, typically once at process
// startup. Per-key trial attempts are logged at Debug, replay hits and
// provider release failures at Warn — never the key material, CEK, IV or
// raw signature bytes themselves.
var logger = logrus.StandardLogger()

// SetLogger installs l as the package-wide diagnostic logger. Passing nil
// restores logrus's standard logger.
func SetLogger(l *logrus.Logger) {
	if l == nil {
		logger = logrus.StandardLogger()
		return
	}
	logger = l
}

func logKeyAttempt(kid string, alg string, err error) {
	entry := logger.WithField("alg", alg)
	if kid != "" {
		entry = entry.WithField("kid", kid)
	}
	if err != nil {
		entry.WithField("error", err).Debug("signing key candidate rejected")
		return
	}
	entry.Debug("signing key candidate verified")
}

func logReplayDetected(kid string) {
	logger.WithField("kid", kid).Warn("token replay detected")
}

func logProviderReleaseFailure(recovered any) {
	logger.WithField("panic", recovered).Warn("crypto provider release failed")
}
