// Package gateway defines the capabilities the subscription coordinator needs
// from a push-messaging provider and from the platform registration flow.
//
// All provider operations are asynchronous. Each call returns immediately with
// a receive-only channel that delivers exactly one result and is then closed:
//
//	select {
//	case err := <-gw.Subscribe(ctx, "eruka_lang-en_audall_users"):
//		if err != nil {
//			log.Printf("subscribe failed: %v", err)
//		}
//	case <-ctx.Done():
//	}
//
// Implementations live in internal/gateway (relay emulator, Firebase Cloud
// Messaging). Test doubles are in the mocks subpackage.
package gateway
