// Package producer re-exports the shared producer lifecycle for hosts that
// embed kafkameter. The canonical implementation lives in
// kafkameter/internal/producer.
package producer

import (
	iproducer "kafkameter/internal/producer"
)

// Type aliases to the canonical internal implementation
type (
	Manager      = iproducer.Manager
	Option       = iproducer.Option
	Settings     = iproducer.Settings
	ExtraSetting = iproducer.ExtraSetting
	Properties   = iproducer.Properties
	Handle       = iproducer.Handle
	Delivery     = iproducer.Delivery
	State        = iproducer.State

	Client            = iproducer.Client
	ClientFactory     = iproducer.ClientFactory
	ClientFactoryFunc = iproducer.ClientFactoryFunc
	ConfluentFactory  = iproducer.ConfluentFactory
)

// Constructor and option aliases
var (
	NewManager       = iproducer.NewManager
	BuildProperties  = iproducer.BuildProperties
	WithFlushTimeout = iproducer.WithFlushTimeout
	WithLogger       = iproducer.WithLogger

	WithClientFactory = iproducer.WithClientFactory
)

const (
	ClientSlotKey          = iproducer.ClientSlotKey
	ValueSerializerSlotKey = iproducer.ValueSerializerSlotKey
)

var (
	ErrNoClient     = iproducer.ErrNoClient
	ErrClientClosed = iproducer.ErrClientClosed

	ErrNotRunning      = iproducer.ErrNotRunning
	ErrFlushIncomplete = iproducer.ErrFlushIncomplete
)
