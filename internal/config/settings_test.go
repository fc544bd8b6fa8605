package config

import (
	"reflect"
	"testing"
	"time"
)

func TestDefaultSettings(t *testing.T) {
	s := Default()
	if s.SubnetMask != SubnetMaskOff {
		t.Errorf("subnet dedup should default to off, got %d", s.SubnetMask)
	}
	if s.Parallelism < 1 {
		t.Errorf("parallelism = %d", s.Parallelism)
	}
	if s.ConnectTimeout != DefaultConnectTimeout || s.RequestTimeout != DefaultRequestTimeout {
		t.Errorf("timeouts = %v / %v", s.ConnectTimeout, s.RequestTimeout)
	}
	if err := s.Validate(); err != nil {
		t.Errorf("defaults must validate: %v", err)
	}
}

func TestValidateSubnetMask(t *testing.T) {
	for _, mask := range []int{0, 16, 24, 32, SubnetMaskOff} {
		s := Default()
		s.SubnetMask = mask
		if err := s.Validate(); err != nil {
			t.Errorf("mask %d rejected: %v", mask, err)
		}
	}
	for _, mask := range []int{-2, 33, 128} {
		s := Default()
		s.SubnetMask = mask
		if err := s.Validate(); err == nil {
			t.Errorf("mask %d accepted, want error", mask)
		}
	}
}

func TestValidateCountryCodes(t *testing.T) {
	s := Default()
	s.Countries = []string{"IT", "GB"}
	if err := s.Validate(); err != nil {
		t.Fatalf("valid codes rejected: %v", err)
	}
	s.Countries = []string{"ITA"}
	if err := s.Validate(); err == nil {
		t.Fatal("three-letter code accepted, want error")
	}
}

func TestFromEnvOverlay(t *testing.T) {
	t.Setenv("CLOSESTPROXY_COUNTRIES", "it, gb")
	t.Setenv("CLOSESTPROXY_SUBNET_MASK", "24")
	t.Setenv("CLOSESTPROXY_PARALLELISM", "3")
	t.Setenv("CLOSESTPROXY_CONNECT_TIMEOUT", "2s")
	t.Setenv("CLOSESTPROXY_HANDSHAKE_ONLY", "true")

	s := Default().FromEnv()
	if !reflect.DeepEqual(s.Countries, []string{"IT", "GB"}) {
		t.Errorf("countries = %v", s.Countries)
	}
	if s.SubnetMask != 24 {
		t.Errorf("subnet mask = %d", s.SubnetMask)
	}
	if s.Parallelism != 3 {
		t.Errorf("parallelism = %d", s.Parallelism)
	}
	if s.ConnectTimeout != 2*time.Second {
		t.Errorf("connect timeout = %v", s.ConnectTimeout)
	}
	if !s.HandshakeOnly {
		t.Error("handshake-only not picked up")
	}
}

func TestFromEnvIgnoresGarbage(t *testing.T) {
	t.Setenv("CLOSESTPROXY_PARALLELISM", "lots")
	t.Setenv("CLOSESTPROXY_CONNECT_TIMEOUT", "soon")

	s := Default().FromEnv()
	if s.Parallelism != Default().Parallelism {
		t.Errorf("parallelism changed to %d on bad input", s.Parallelism)
	}
	if s.ConnectTimeout != DefaultConnectTimeout {
		t.Errorf("timeout changed to %v on bad input", s.ConnectTimeout)
	}
}
