package worker

import (
	"testing"
	"time"
)

func TestConnTableCapacity(t *testing.T) {
	tbl := newConnTable(2)
	tbl.insert(&conn{fd: 100})
	if tbl.full() {
		t.Fatal("table should not be full with 1/2 entries")
	}
	tbl.insert(&conn{fd: 101})
	if !tbl.full() {
		t.Fatal("table should be full with 2/2 entries")
	}
}

func TestConnTableGetAndRemove(t *testing.T) {
	tbl := newConnTable(4)
	tbl.insert(&conn{fd: -1})

	if _, ok := tbl.get(-1); !ok {
		t.Fatal("expected fd -1 present")
	}
	tbl.remove(-1)
	if _, ok := tbl.get(-1); ok {
		t.Fatal("expected fd -1 removed")
	}
}

func TestConnTableExpired(t *testing.T) {
	tbl := newConnTable(4)
	tbl.byFD[-1] = &conn{fd: -1, lastActive: time.Now().Add(-time.Hour)}
	tbl.byFD[-2] = &conn{fd: -2, lastActive: time.Now()}

	expired := tbl.expired(60)
	if len(expired) != 1 || expired[0] != -1 {
		t.Fatalf("expected only fd -1 expired, got %v", expired)
	}
}

func TestConnTableExpiredDisabledWhenZero(t *testing.T) {
	tbl := newConnTable(4)
	tbl.byFD[-1] = &conn{fd: -1, lastActive: time.Now().Add(-time.Hour)}
	if got := tbl.expired(0); got != nil {
		t.Fatalf("expected no expiry scan with timeout 0, got %v", got)
	}
}

func TestConnBufCap(t *testing.T) {
	c := &conn{maxBody: 0}
	if c.bufCap() != maxHeaderCap {
		t.Errorf("bufCap() = %d, want %d (unlimited body)", c.bufCap(), maxHeaderCap)
	}
	c2 := &conn{maxBody: 1000}
	if c2.bufCap() != maxHeaderCap+1000 {
		t.Errorf("bufCap() = %d, want %d", c2.bufCap(), maxHeaderCap+1000)
	}
}

func TestItoa(t *testing.T) {
	cases := map[int]string{0: "0", 7: "7", 42: "42", -5: "-5", 1000: "1000"}
	for n, want := range cases {
		if got := itoa(n); got != want {
			t.Errorf("itoa(%d) = %q, want %q", n, got, want)
		}
	}
}
