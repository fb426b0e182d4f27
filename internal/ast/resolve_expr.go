package ast

// ResolveExpr substitutes polymorphic types inside every type-bearing
// expression, returning the (possibly replaced) node. The expression must
// already be a private clone; children are rewritten in place.
func ResolveExpr(catalog *PolyCatalog, expr Expr) (Expr, error) {
	if expr == nil {
		return nil, nil
	}

	var err error

	switch e := expr.(type) {
	case *PolyCountExpr:
		count := catalog.FindCount(e.Name)
		if count == nil {
			return nil, &UnresolvedPolymorphError{Name: "#" + e.Name}
		}
		return &TypedIntegerLit{TypeName: "usize", Value: int64(count.Binding), Source: e.Source}, nil

	case *BinaryExpr:
		if e.Left, err = ResolveExpr(catalog, e.Left); err != nil {
			return nil, err
		}
		if e.Right, err = ResolveExpr(catalog, e.Right); err != nil {
			return nil, err
		}

	case *UnaryExpr:
		if e.Value, err = ResolveExpr(catalog, e.Value); err != nil {
			return nil, err
		}

	case *CallExpr:
		if err = resolveExprList(catalog, e.Args); err != nil {
			return nil, err
		}
		if !e.Gives.IsEmpty() {
			if e.Gives, err = ResolveType(catalog, e.Gives); err != nil {
				return nil, err
			}
		}

	case *MethodCallExpr:
		if e.Subject, err = ResolveExpr(catalog, e.Subject); err != nil {
			return nil, err
		}
		if err = resolveExprList(catalog, e.Args); err != nil {
			return nil, err
		}
		if !e.Gives.IsEmpty() {
			if e.Gives, err = ResolveType(catalog, e.Gives); err != nil {
				return nil, err
			}
		}

	case *AddressCallExpr:
		if e.Address, err = ResolveExpr(catalog, e.Address); err != nil {
			return nil, err
		}
		if err = resolveExprList(catalog, e.Args); err != nil {
			return nil, err
		}

	case *MemberExpr:
		if e.Subject, err = ResolveExpr(catalog, e.Subject); err != nil {
			return nil, err
		}

	case *ArrayAccessExpr:
		if e.Subject, err = ResolveExpr(catalog, e.Subject); err != nil {
			return nil, err
		}
		if e.Index, err = ResolveExpr(catalog, e.Index); err != nil {
			return nil, err
		}

	case *FuncAddrExpr:
		if e.MatchArgs != nil {
			if e.MatchArgs, err = ResolveTypes(catalog, e.MatchArgs); err != nil {
				return nil, err
			}
		}

	case *CastExpr:
		if e.To, err = ResolveType(catalog, e.To); err != nil {
			return nil, err
		}
		if e.From, err = ResolveExpr(catalog, e.From); err != nil {
			return nil, err
		}

	case *SizeofExpr:
		if e.Type, err = ResolveType(catalog, e.Type); err != nil {
			return nil, err
		}

	case *AlignofExpr:
		if e.Type, err = ResolveType(catalog, e.Type); err != nil {
			return nil, err
		}

	case *TypeinfoExpr:
		if e.Type, err = ResolveType(catalog, e.Type); err != nil {
			return nil, err
		}

	case *TypenameofExpr:
		if e.Type, err = ResolveType(catalog, e.Type); err != nil {
			return nil, err
		}

	case *NewExpr:
		if e.Type, err = ResolveType(catalog, e.Type); err != nil {
			return nil, err
		}
		if e.Count, err = ResolveExpr(catalog, e.Count); err != nil {
			return nil, err
		}

	case *TernaryExpr:
		if e.Condition, err = ResolveExpr(catalog, e.Condition); err != nil {
			return nil, err
		}
		if e.IfTrue, err = ResolveExpr(catalog, e.IfTrue); err != nil {
			return nil, err
		}
		if e.IfFalse, err = ResolveExpr(catalog, e.IfFalse); err != nil {
			return nil, err
		}

	case *InitializerListExpr:
		if err = resolveExprList(catalog, e.Values); err != nil {
			return nil, err
		}

	case *VaArgExpr:
		if e.List, err = ResolveExpr(catalog, e.List); err != nil {
			return nil, err
		}
		if e.Type, err = ResolveType(catalog, e.Type); err != nil {
			return nil, err
		}
	}

	return expr, nil
}

func resolveExprList(catalog *PolyCatalog, exprs []Expr) error {
	for i, expr := range exprs {
		resolved, err := ResolveExpr(catalog, expr)
		if err != nil {
			return err
		}
		exprs[i] = resolved
	}
	return nil
}

// ResolveStmts substitutes polymorphic types inside a statement list,
// rewriting the (already cloned) statements in place.
func ResolveStmts(catalog *PolyCatalog, stmts []Stmt) error {
	for i, stmt := range stmts {
		resolved, err := resolveStmt(catalog, stmt)
		if err != nil {
			return err
		}
		stmts[i] = resolved
	}
	return nil
}

func resolveStmt(catalog *PolyCatalog, stmt Stmt) (Stmt, error) {
	var err error

	switch s := stmt.(type) {
	case *DeclareStmt:
		if s.Type, err = ResolveType(catalog, s.Type); err != nil {
			return nil, err
		}
		if s.Value, err = ResolveExpr(catalog, s.Value); err != nil {
			return nil, err
		}

	case *AssignStmt:
		if s.Destination, err = ResolveExpr(catalog, s.Destination); err != nil {
			return nil, err
		}
		if s.Value, err = ResolveExpr(catalog, s.Value); err != nil {
			return nil, err
		}

	case *ReturnStmt:
		if s.Value, err = ResolveExpr(catalog, s.Value); err != nil {
			return nil, err
		}
		if err = ResolveStmts(catalog, s.Deferred); err != nil {
			return nil, err
		}

	case *ExprStmt:
		if s.Expr, err = ResolveExpr(catalog, s.Expr); err != nil {
			return nil, err
		}

	case *DeleteStmt:
		if s.Value, err = ResolveExpr(catalog, s.Value); err != nil {
			return nil, err
		}

	case *DeferStmt:
		if s.Deferred, err = resolveStmt(catalog, s.Deferred); err != nil {
			return nil, err
		}

	case *ConditionalStmt:
		if s.Condition, err = ResolveExpr(catalog, s.Condition); err != nil {
			return nil, err
		}
		if err = ResolveStmts(catalog, s.Then); err != nil {
			return nil, err
		}
		if err = ResolveStmts(catalog, s.Else); err != nil {
			return nil, err
		}

	case *WhileStmt:
		if s.Condition, err = ResolveExpr(catalog, s.Condition); err != nil {
			return nil, err
		}
		if err = ResolveStmts(catalog, s.Body); err != nil {
			return nil, err
		}

	case *RepeatStmt:
		if s.Times, err = ResolveExpr(catalog, s.Times); err != nil {
			return nil, err
		}
		if err = ResolveStmts(catalog, s.Body); err != nil {
			return nil, err
		}

	case *EachInStmt:
		if !s.ItType.IsEmpty() {
			if s.ItType, err = ResolveType(catalog, s.ItType); err != nil {
				return nil, err
			}
		}
		if s.Array, err = ResolveExpr(catalog, s.Array); err != nil {
			return nil, err
		}
		if s.Length, err = ResolveExpr(catalog, s.Length); err != nil {
			return nil, err
		}
		if err = ResolveStmts(catalog, s.Body); err != nil {
			return nil, err
		}

	case *ForStmt:
		if err = ResolveStmts(catalog, s.Init); err != nil {
			return nil, err
		}
		if s.Condition, err = ResolveExpr(catalog, s.Condition); err != nil {
			return nil, err
		}
		if err = ResolveStmts(catalog, s.Step); err != nil {
			return nil, err
		}
		if err = ResolveStmts(catalog, s.Body); err != nil {
			return nil, err
		}

	case *SwitchStmt:
		if s.Value, err = ResolveExpr(catalog, s.Value); err != nil {
			return nil, err
		}
		for i := range s.Cases {
			if s.Cases[i].Value, err = ResolveExpr(catalog, s.Cases[i].Value); err != nil {
				return nil, err
			}
			if err = ResolveStmts(catalog, s.Cases[i].Body); err != nil {
				return nil, err
			}
		}
		if err = ResolveStmts(catalog, s.Default); err != nil {
			return nil, err
		}

	case *BlockStmt:
		if err = ResolveStmts(catalog, s.Body); err != nil {
			return nil, err
		}

	case *VaStartStmt:
		if s.List, err = ResolveExpr(catalog, s.List); err != nil {
			return nil, err
		}

	case *VaEndStmt:
		if s.List, err = ResolveExpr(catalog, s.List); err != nil {
			return nil, err
		}

	case *VaCopyStmt:
		if s.Destination, err = ResolveExpr(catalog, s.Destination); err != nil {
			return nil, err
		}
		if s.Src_, err = ResolveExpr(catalog, s.Src_); err != nil {
			return nil, err
		}

	case *AsmStmt:
		if err = resolveExprList(catalog, s.Args); err != nil {
			return nil, err
		}
	}

	return stmt, nil
}
