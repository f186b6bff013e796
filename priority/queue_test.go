package priority

import "testing"

func TestCompare(t *testing.T) {
	cases := []struct {
		a, b Tuple
		want int
	}{
		{Tuple{Score: 1, Order: 0, UID: 0}, Tuple{Score: 2, Order: 0, UID: 0}, -1},
		{Tuple{Score: 2, Order: 1, UID: 0}, Tuple{Score: 2, Order: 0, UID: 0}, 1},
		{Tuple{Score: 2, Order: 0, UID: 1}, Tuple{Score: 2, Order: 0, UID: 0}, 1},
		{Tuple{Score: 2, Order: 0, UID: 0}, Tuple{Score: 2, Order: 0, UID: 0}, 0},
	}
	for _, c := range cases {
		if got := Compare(c.a, c.b); got != c.want {
			t.Errorf("Compare(%+v, %+v) = %d, want %d", c.a, c.b, got, c.want)
		}
	}
}

func TestQueuePopOrder(t *testing.T) {
	q := NewQueue()
	q.Upsert(Tuple{Score: 5, Order: 0, UID: 1})
	q.Upsert(Tuple{Score: 10, Order: 0, UID: 2})
	q.Upsert(Tuple{Score: 1, Order: 0, UID: 3})

	want := []int{2, 1, 3}
	for _, uid := range want {
		top, ok := q.Pop()
		if !ok {
			t.Fatalf("expected entry for uid %d", uid)
		}
		if top.UID != uid {
			t.Errorf("Pop() uid = %d, want %d", top.UID, uid)
		}
	}
	if q.Len() != 0 {
		t.Errorf("Len() = %d, want 0", q.Len())
	}
}

func TestQueueUpsertFixesExisting(t *testing.T) {
	q := NewQueue()
	q.Upsert(Tuple{Score: 5, Order: 0, UID: 1})
	q.Upsert(Tuple{Score: 10, Order: 0, UID: 2})

	// Lower uid 2's score below uid 1's: top should switch.
	q.Upsert(Tuple{Score: 1, Order: 0, UID: 2})
	top, _ := q.Peek()
	if top.UID != 1 {
		t.Errorf("Peek() uid = %d, want 1", top.UID)
	}
	if q.Len() != 2 {
		t.Errorf("Len() = %d, want 2", q.Len())
	}
}

func TestQueueRemove(t *testing.T) {
	q := NewQueue()
	q.Upsert(Tuple{Score: 5, Order: 0, UID: 1})
	q.Upsert(Tuple{Score: 10, Order: 0, UID: 2})
	q.Remove(2)
	if q.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", q.Len())
	}
	top, _ := q.Peek()
	if top.UID != 1 {
		t.Errorf("Peek() uid = %d, want 1", top.UID)
	}
}
