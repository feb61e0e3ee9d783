package jobmanager_test

import (
	"testing"

	"github.com/nixpig/pman/internal/jobmanager"
)

func testTablePIDs(t *testing.T, table *jobmanager.Table, want []int) {
	t.Helper()

	jobs := table.Jobs()

	if table.Len() != len(want) {
		t.Fatalf("expected size: got '%d', want '%d'", table.Len(), len(want))
	}

	if len(jobs) != len(want) {
		t.Fatalf("expected jobs: got '%d', want '%d'", len(jobs), len(want))
	}

	for i, job := range jobs {
		if job.PID() != want[i] {
			t.Errorf(
				"expected pid at %d: got '%d', want '%d'",
				i,
				job.PID(),
				want[i],
			)
		}
	}
}

func TestTable(t *testing.T) {
	t.Run("Test empty table", func(t *testing.T) {
		table := jobmanager.NewTable()

		testTablePIDs(t, table, []int{})

		if table.Contains(1) {
			t.Errorf("expected empty table not to contain pid")
		}

		if _, ok := table.Find(1); ok {
			t.Errorf("expected find on empty table to fail")
		}
	})

	t.Run("Test insertion order", func(t *testing.T) {
		table := jobmanager.NewTable()

		for _, pid := range []int{30, 10, 20} {
			table.Append(jobmanager.NewJob(pid, []string{"sleep", "1"}, 0))
		}

		testTablePIDs(t, table, []int{30, 10, 20})
	})

	t.Run("Test size after appends and removals", func(t *testing.T) {
		table := jobmanager.NewTable()

		for pid := 1; pid <= 10; pid++ {
			table.Append(jobmanager.NewJob(pid, []string{"true"}, 0))
		}

		removed := 0
		for _, pid := range []int{2, 4, 4, 6, 42, 10} {
			if table.Remove(pid) {
				removed++
			}
		}

		if removed != 4 {
			t.Errorf("expected successful removals: got '%d', want '%d'", removed, 4)
		}

		testTablePIDs(t, table, []int{1, 3, 5, 7, 8, 9})
	})

	t.Run("Test remove non-existent pid", func(t *testing.T) {
		table := jobmanager.NewTable()
		table.Append(jobmanager.NewJob(1, []string{"true"}, 0))

		if table.Remove(2) {
			t.Errorf("expected remove of absent pid to report false")
		}

		testTablePIDs(t, table, []int{1})
	})

	t.Run("Test append after removing tail", func(t *testing.T) {
		table := jobmanager.NewTable()

		table.Append(jobmanager.NewJob(1, []string{"first"}, 0))
		table.Append(jobmanager.NewJob(2, []string{"second"}, 0))
		table.Remove(2)
		table.Append(jobmanager.NewJob(3, []string{"third"}, 0))

		testTablePIDs(t, table, []int{1, 3})

		if name := table.Jobs()[1].Name(); name != "third" {
			t.Errorf("expected second entry: got '%s', want '%s'", name, "third")
		}
	})

	t.Run("Test remove head and only entry", func(t *testing.T) {
		table := jobmanager.NewTable()

		table.Append(jobmanager.NewJob(1, []string{"only"}, 0))
		table.Remove(1)
		table.Append(jobmanager.NewJob(2, []string{"next"}, 0))

		testTablePIDs(t, table, []int{2})
	})

	t.Run("Test duplicate pid is not tracked twice", func(t *testing.T) {
		table := jobmanager.NewTable()

		table.Append(jobmanager.NewJob(1, []string{"old"}, 0))
		table.Append(jobmanager.NewJob(1, []string{"new"}, 0))

		testTablePIDs(t, table, []int{1})

		job, ok := table.Find(1)
		if !ok {
			t.Fatalf("expected to find pid 1")
		}

		if job.Name() != "new" {
			t.Errorf("expected name: got '%s', want '%s'", job.Name(), "new")
		}
	})

	t.Run("Test clear", func(t *testing.T) {
		table := jobmanager.NewTable()

		table.Append(jobmanager.NewJob(1, []string{"a"}, 0))
		table.Append(jobmanager.NewJob(2, []string{"b"}, 0))
		table.Clear()

		testTablePIDs(t, table, []int{})

		if table.Contains(1) {
			t.Errorf("expected cleared table not to contain pid")
		}
	})
}
