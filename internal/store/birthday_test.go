package store

import "testing"

func TestBirthdayCreateAndList(t *testing.T) {
	bs := NewBirthdayStore(setupTestDB(t))

	if _, err := bs.Create("Marta", "24/12", "prima"); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := bs.Create("Luis", "05/03", ""); err != nil {
		t.Fatalf("create: %v", err)
	}

	birthdays, err := bs.List()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(birthdays) != 2 {
		t.Fatalf("len = %d, want 2", len(birthdays))
	}
	// Ordered by month, then day.
	if birthdays[0].Name != "Luis" || birthdays[1].Name != "Marta" {
		t.Errorf("order = %s, %s; want Luis, Marta", birthdays[0].Name, birthdays[1].Name)
	}
}

func TestBirthdayCreateRejectsBadDate(t *testing.T) {
	bs := NewBirthdayStore(setupTestDB(t))

	for _, date := range []string{"", "24-12", "1/1", "24/12/1990"} {
		if _, err := bs.Create("X", date, ""); err == nil {
			t.Errorf("Create with date %q accepted, want error", date)
		}
	}
}

func TestBirthdayListOnDate(t *testing.T) {
	bs := NewBirthdayStore(setupTestDB(t))

	bs.Create("Marta", "24/12", "")
	bs.Create("Luis", "24/12", "")
	bs.Create("Ana", "01/01", "")

	matches, err := bs.ListOnDate("24/12")
	if err != nil {
		t.Fatalf("list on date: %v", err)
	}
	if len(matches) != 2 {
		t.Errorf("len = %d, want 2", len(matches))
	}

	none, err := bs.ListOnDate("15/08")
	if err != nil {
		t.Fatalf("list on date: %v", err)
	}
	if len(none) != 0 {
		t.Errorf("expected no matches, got %d", len(none))
	}
}

func TestBirthdayDelete(t *testing.T) {
	bs := NewBirthdayStore(setupTestDB(t))

	b, err := bs.Create("Marta", "24/12", "")
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := bs.Delete(b.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	got, err := bs.GetByID(b.ID)
	if err != nil {
		t.Fatalf("get by id: %v", err)
	}
	if got != nil {
		t.Errorf("birthday survived delete: %+v", got)
	}
}
