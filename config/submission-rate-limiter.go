package config

import "time"

// Submission cooldown configuration, applied per team
type SubmissionRateLimitConfig struct {
	AttemptsThreshold1 int           // Number of submissions before first cooldown
	CooldownDuration1  time.Duration // First cooldown duration
	AttemptsThreshold2 int           // Number of submissions before second cooldown
	CooldownDuration2  time.Duration // Second cooldown duration
	Window             time.Duration // Submissions older than this no longer count
}

var DefaultSubmissionRateLimit = SubmissionRateLimitConfig{
	AttemptsThreshold1: 10,
	CooldownDuration1:  30 * time.Second,
	AttemptsThreshold2: 20,
	CooldownDuration2:  2 * time.Minute,
	Window:             5 * time.Minute,
}
