// Package audit records the security audit trail of the gateway.
//
// Two kinds of events are written:
//   - authentication events, one per credentialed request or call that
//     reached the authenticator and was accepted or rejected
//   - configuration events, one per client table rebuild
//
// Events carry the client identifier, the peer address and the resource,
// never the Authorization header or any secret material.
//
// # Usage
//
//	logger, err := audit.NewLogger(cfg.Spec.Observability.Audit,
//	    audit.WithLoggerRegisterer(metrics.Registerer()))
//	if err != nil {
//	    return err
//	}
//	defer logger.Close()
//
//	logger.LogAuthentication(ctx, audit.OutcomeFailure, subject, resource)
package audit
