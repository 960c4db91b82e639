// Package config holds the plain data structures the PBX populates
// from its own configuration reader before constructing an Engine
// (spec §6 "Configuration surface"; file parsing itself is an
// external collaborator per spec §1). Mirrors the teacher's
// toxcore.Options / NewOptions() pattern: a struct plus a constructor
// supplying the spec's stated defaults, nothing more.
package config

import "time"

// Options holds the `[general]` keys the protocol core consumes
// (spec §6). Keys the PBX owns but the core never reads — CLI,
// realtime DSNs, musiconhold paths, dialplan switches — are
// intentionally absent; that configuration never reaches this module.
type Options struct {
	BindAddr string
	BindPort uint16

	IaxThreadCount      int
	IaxMaxThreadCount   int
	DynamicWorkerIdle   time.Duration
	TotalCallNumbers    int

	MaxJitterBuffer  time.Duration
	ResyncThreshold  time.Duration
	MaxJitterInterps int
	JitterTargetExtra time.Duration

	PingTime  time.Duration
	LagrqTime time.Duration

	TrunkFreq    time.Duration
	TrunkMTU     int
	TrunkMaxSize int

	MaxRegExpire time.Duration
	MinRegExpire time.Duration

	AuthDebug       bool
	Encryption      bool
	ForceEncryption bool
	JitterBuffer    bool
	DelayReject     bool
	MaxAuthReq      int

	Bandwidth string // class name used by the PBX to pre-seed Allow/Disallow; core treats it opaquely

	CallTokenOptional    bool
	CallTokenExpiration  time.Duration
	CallTokenServerSecret []byte

	MaxCallNumbers            int
	MaxCallNumbersNonvalidated int

	ShrinkCallerID bool
}

// NewOptions returns an Options populated with spec §4/§6's stated
// defaults (worker pool size 10/100, jitter buffer 1000ms, ping 21s,
// lagrq 10s, trunk tick 20ms/1240B MTU/128000B cap, call-number quotas
// 2048/8192, call-token delay 10s).
func NewOptions() *Options {
	return &Options{
		BindAddr: "0.0.0.0",
		BindPort: 4569,

		IaxThreadCount:    10,
		IaxMaxThreadCount: 100,
		DynamicWorkerIdle: 30 * time.Second,
		TotalCallNumbers:  32768,

		MaxJitterBuffer:   1000 * time.Millisecond,
		ResyncThreshold:   1000 * time.Millisecond,
		MaxJitterInterps:  10,
		JitterTargetExtra: 40 * time.Millisecond,

		PingTime:  21 * time.Second,
		LagrqTime: 10 * time.Second,

		TrunkFreq:    20 * time.Millisecond,
		TrunkMTU:     1240,
		TrunkMaxSize: 128000,

		MaxRegExpire: 3600 * time.Second,
		MinRegExpire: 60 * time.Second,

		MaxAuthReq: 0, // unlimited unless the PBX sets one

		CallTokenOptional:   true,
		CallTokenExpiration: 10 * time.Second,

		MaxCallNumbers:             2048,
		MaxCallNumbersNonvalidated: 8192,
	}
}

// CallNumberLimits mirrors the `[callnumberlimits]` section: ranges
// that override the per-peer default quota for calls sourced from a
// given CIDR (spec §4.3 "may be overridden by config ranges").
type CallNumberLimits struct {
	CIDR  string
	Limit int
}
