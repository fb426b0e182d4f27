package ir

import "testing"

func TestFoldConstCast(t *testing.T) {
	u8 := &Type{Kind: TypeU8}
	u64 := &Type{Kind: TypeU64}
	s32 := &Type{Kind: TypeS32}
	f32 := &Type{Kind: TypeF32}
	f64 := &Type{Kind: TypeF64}

	tests := []struct {
		name string
		kind ValueKind
		on   *Value
		to   *Type
		want any
	}{
		{
			"zext keeps payload",
			ValConstZext,
			&Value{Kind: ValLiteral, Type: u8, Literal: uint64(200)},
			u64,
			uint64(200),
		},
		{
			"trunc masks to width",
			ValConstTrunc,
			&Value{Kind: ValLiteral, Type: u64, Literal: uint64(0x1FF)},
			u8,
			uint64(0xFF),
		},
		{
			"sext keeps signed payload",
			ValConstSext,
			&Value{Kind: ValLiteral, Type: s32, Literal: int64(-5)},
			&Type{Kind: TypeS64},
			int64(-5),
		},
		{
			"ftrunc rounds through float32",
			ValConstFtrunc,
			&Value{Kind: ValLiteral, Type: f64, Literal: float64(1.5)},
			f32,
			float64(1.5),
		},
		{
			"bitcast keeps payload",
			ValConstBitcast,
			&Value{Kind: ValLiteral, Type: s32, Literal: int64(7)},
			&Type{Kind: TypeU32},
			int64(7),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			folded := FoldConstCast(tt.kind, tt.on, tt.to)
			if folded.Kind != ValLiteral {
				t.Fatalf("expected folded literal, got kind %d", folded.Kind)
			}
			if folded.Type != tt.to {
				t.Error("folded value should carry the target type")
			}
			if folded.Literal != tt.want {
				t.Errorf("payload = %v, want %v", folded.Literal, tt.want)
			}
		})
	}
}

func TestFoldConstCastNonLiteral(t *testing.T) {
	operand := &Value{Kind: ValResult, Type: &Type{Kind: TypeS32}, Block: 0, Instr: 2}
	folded := FoldConstCast(ValConstBitcast, operand, &Type{Kind: TypeU32})

	if folded.Kind != ValConstBitcast {
		t.Error("non-literal operands should stay as unfolded const casts")
	}
	if folded.On != operand {
		t.Error("unfolded cast should reference its operand")
	}
}

func TestValueIsConstant(t *testing.T) {
	usize := &Type{Kind: TypeU64}

	if !(&Value{Kind: ValLiteral, Type: usize, Literal: uint64(1)}).IsConstant() {
		t.Error("literal should be constant")
	}
	if (&Value{Kind: ValResult, Type: usize}).IsConstant() {
		t.Error("instruction result should not be constant")
	}

	array := &Value{Kind: ValArrayLiteral, Values: []*Value{
		{Kind: ValLiteral, Type: usize, Literal: uint64(1)},
		{Kind: ValResult, Type: usize},
	}}
	if array.IsConstant() {
		t.Error("array literal with non-constant member should not be constant")
	}
}
