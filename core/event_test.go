package core

import "testing"

func TestEventEqualIgnoresAttributeOrder(t *testing.T) {
	a := NewEvent("swap", Attr("pool", "BTC.BTC"), Attr("swap_slip", "10"))
	b := NewEvent("swap", Attr("swap_slip", "10"), Attr("pool", "BTC.BTC"))
	if !a.Equal(b) {
		t.Fatalf("events with reordered attributes should be equal")
	}
}

func TestEventEqualIgnoresCase(t *testing.T) {
	a := NewEvent("swap", Attr("pool", "btc.btc"))
	b := NewEvent("swap", Attr("POOL", "BTC.BTC"))
	if !a.Equal(b) {
		t.Fatalf("events should be equal case-insensitively")
	}
}

func TestOutboundEventExcludesIDFromEquality(t *testing.T) {
	a := NewEvent("outbound", Attr("id", "aaaa"), Attr("chain", "BTC"))
	b := NewEvent("outbound", Attr("id", "bbbb"), Attr("chain", "BTC"))
	if !a.Equal(b) {
		t.Fatalf("outbound events must ignore id for equality")
	}
}

func TestNonOutboundEventIncludesID(t *testing.T) {
	a := NewEvent("swap", Attr("id", "aaaa"))
	b := NewEvent("swap", Attr("id", "bbbb"))
	if a.Equal(b) {
		t.Fatalf("non-outbound events must include id in equality")
	}
}

func TestEqualAsMultiset(t *testing.T) {
	a := []Event{
		NewEvent("swap", Attr("pool", "BTC.BTC")),
		NewEvent("fee", Attr("coins", "1 BTC.BTC")),
	}
	b := []Event{
		NewEvent("fee", Attr("coins", "1 BTC.BTC")),
		NewEvent("swap", Attr("pool", "BTC.BTC")),
	}
	if !EqualAsMultiset(a, b) {
		t.Fatalf("expected reordered event windows to be equal as multisets")
	}

	c := append([]Event{}, a...)
	c = append(c, NewEvent("gas", Attr("asset", "BTC.BTC")))
	if EqualAsMultiset(a, c) {
		t.Fatalf("expected differing-length windows to be unequal")
	}
}

func TestEventLogAppendAndSince(t *testing.T) {
	var log EventLog
	log.Append(NewEvent("donate"))
	log.Append(NewEvent("swap"))
	log.Append(NewEvent("reserve"))
	if log.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", log.Len())
	}
	since := log.Since(1)
	if len(since) != 2 || since[0].Type != "swap" || since[1].Type != "reserve" {
		t.Fatalf("unexpected Since(1) result: %+v", since)
	}
}
