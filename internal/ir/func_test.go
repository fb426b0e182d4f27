package ir

import "testing"

func TestEndpointListOrdering(t *testing.T) {
	// Non-polymorphic endpoints sort before polymorphic ones; within each
	// group, ascending ast func id
	list := &EndpointList{}
	list.Insert(Endpoint{AstFuncID: 5, IRFuncID: InvalidFuncID})
	list.Insert(Endpoint{AstFuncID: 3, IRFuncID: 7})
	list.Insert(Endpoint{AstFuncID: 1, IRFuncID: InvalidFuncID})
	list.Insert(Endpoint{AstFuncID: 0, IRFuncID: 2})
	list.Insert(Endpoint{AstFuncID: 8, IRFuncID: 4})

	want := []Endpoint{
		{AstFuncID: 0, IRFuncID: 2},
		{AstFuncID: 3, IRFuncID: 7},
		{AstFuncID: 8, IRFuncID: 4},
		{AstFuncID: 1, IRFuncID: InvalidFuncID},
		{AstFuncID: 5, IRFuncID: InvalidFuncID},
	}

	if len(list.Endpoints) != len(want) {
		t.Fatalf("list has %d endpoints, want %d", len(list.Endpoints), len(want))
	}

	for i, endpoint := range want {
		if list.Endpoints[i] != endpoint {
			t.Errorf("endpoint[%d] = %+v, want %+v", i, list.Endpoints[i], endpoint)
		}
	}
}

func TestEndpointIsPolymorphic(t *testing.T) {
	if (Endpoint{AstFuncID: 0, IRFuncID: 3}).IsPolymorphic() {
		t.Error("endpoint with IR function should not be polymorphic")
	}
	if !(Endpoint{AstFuncID: 0, IRFuncID: InvalidFuncID}).IsPolymorphic() {
		t.Error("endpoint without IR function should be polymorphic")
	}
}

func TestModuleMappings(t *testing.T) {
	m := NewModule()

	m.CreateFuncMapping("f", Endpoint{AstFuncID: 0, IRFuncID: 0}, true)
	m.CreateFuncMapping("f", Endpoint{AstFuncID: 1, IRFuncID: InvalidFuncID}, false)
	m.CreateMethodMapping("Widget", "draw", Endpoint{AstFuncID: 2, IRFuncID: 1})

	endpoints := m.FindFuncEndpoints("f")
	if endpoints == nil || len(endpoints.Endpoints) != 2 {
		t.Fatal("expected two endpoints for f")
	}
	if endpoints.Endpoints[0].AstFuncID != 0 {
		t.Error("non-polymorphic endpoint should sort first")
	}

	if m.FindMethodEndpoints("Widget", "draw") == nil {
		t.Error("method mapping not found")
	}
	if m.FindMethodEndpoints("Widget", "erase") != nil {
		t.Error("unexpected method mapping")
	}

	if len(m.JobList) != 1 {
		t.Errorf("job list has %d entries, want 1", len(m.JobList))
	}

	job, ok := m.PopJob()
	if !ok || job.AstFuncID != 0 {
		t.Error("PopJob should return the queued endpoint")
	}
	if _, ok := m.PopJob(); ok {
		t.Error("job list should be exhausted")
	}
}

func TestTypeMapLateBinding(t *testing.T) {
	tm := NewTypeMap()

	skeleton := &Type{Kind: TypeStructure, StructName: "Widget"}
	tm.Register("Widget", skeleton)

	// A pointer taken before the fields are known must see them afterward
	pointer := PointerTo(tm.Find("Widget"))

	tm.Register("Widget", &Type{
		Kind:       TypeStructure,
		StructName: "Widget",
		Fields:     []*Type{{Kind: TypeS32}},
	})

	if len(pointer.Elem.Fields) != 1 {
		t.Error("late-bound registration should update the original type in place")
	}

	if names := tm.Names(); len(names) != 1 || names[0] != "Widget" {
		t.Errorf("Names() = %v", names)
	}
}
