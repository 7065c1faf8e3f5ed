// Package gateway holds the provider adapters that implement
// pkg/gateway.Gateway: relay talks to a cnotify relay over HTTP and firebase
// talks to Firebase Cloud Messaging through the Admin SDK.
package gateway
