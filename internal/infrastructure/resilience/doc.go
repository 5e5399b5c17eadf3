/*
Package resilience provides circuit breakers for outbound HTTP calls.

Every plugin fetch, language detection and repository download goes through a
breaker picked by host from a Group. A site that keeps failing is shed for a
cooldown instead of costing every query a full timeout.

# Usage

	group := resilience.NewGroup(resilience.Settings{
		Threshold: 5,
		Cooldown:  30 * time.Second,
		OnStateChange: func(name string, from, to resilience.State) {
			logger.Warn("Breaker state changed", zap.String("host", name), zap.Stringer("to", to))
		},
	})

	err := group.ForURL(u).Do(func() error {
		return fetch(ctx, u)
	})

# States

	Closed --[Threshold failures]-> Open --[Cooldown]-> Half-Open --[Probes successes]-> Closed
	                                                        |
	                                                   [failure]
	                                                        v
	                                                      Open
*/
package resilience
