package store

import (
	"strings"
	"testing"
	"time"

	"github.com/qyrowren/flightdeck/internal/telemetry"
)

func fixtureTable(t *testing.T) (*telemetry.Table, telemetry.Report) {
	t.Helper()
	input := "Timestamp,POS_Latitude_deg,POS_Longitude_deg,POS_Altitude_ft\n" +
		"2025-09-19 09:00:00,14.3,121.05,60000\n"
	table, report := telemetry.NewValidator(telemetry.Options{}).Validate(strings.NewReader(input))
	if table == nil {
		t.Fatalf("fixture did not validate: %v", report.Warnings)
	}
	return table, report
}

func TestPutGetDelete(t *testing.T) {
	s := New(time.Minute, time.Minute)
	defer s.Close()

	table, report := fixtureTable(t)
	sess := s.Put("flight.csv", table, report)
	if sess.ID == "" {
		t.Fatal("empty session id")
	}

	got, err := s.Get(sess.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.FileName != "flight.csv" || got.Table.NumRows() != 1 {
		t.Errorf("got session %+v", got)
	}

	s.Delete(sess.ID)
	if _, err := s.Get(sess.ID); err != ErrNotFound {
		t.Errorf("after delete, err = %v, want ErrNotFound", err)
	}
}

func TestGetUnknown(t *testing.T) {
	s := New(time.Minute, time.Minute)
	defer s.Close()
	if _, err := s.Get("nope"); err != ErrNotFound {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestDistinctIDs(t *testing.T) {
	s := New(time.Minute, time.Minute)
	defer s.Close()
	table, report := fixtureTable(t)
	a := s.Put("a.csv", table, report)
	b := s.Put("b.csv", table, report)
	if a.ID == b.ID {
		t.Error("session ids collide")
	}
	if s.Len() != 2 {
		t.Errorf("len = %d, want 2", s.Len())
	}
}

func TestExpiry(t *testing.T) {
	s := New(10*time.Millisecond, time.Hour) // sweep manually
	defer s.Close()
	table, report := fixtureTable(t)
	sess := s.Put("a.csv", table, report)

	s.expire(time.Now().Add(time.Second))
	if _, err := s.Get(sess.ID); err != ErrNotFound {
		t.Errorf("expired session still present, err = %v", err)
	}
}

func TestGetRefreshesExpiry(t *testing.T) {
	s := New(50*time.Millisecond, time.Hour)
	defer s.Close()
	table, report := fixtureTable(t)
	sess := s.Put("a.csv", table, report)

	time.Sleep(30 * time.Millisecond)
	if _, err := s.Get(sess.ID); err != nil {
		t.Fatal(err)
	}
	// Access reset the clock; an expire pass just past the original deadline
	// must keep the session.
	s.expire(sess.CreatedAt.Add(55 * time.Millisecond))
	if _, err := s.Get(sess.ID); err != nil {
		t.Errorf("refreshed session expired: %v", err)
	}
}
