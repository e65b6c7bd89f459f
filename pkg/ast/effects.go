package ast

// pureConstructors are builtins whose call or construction has no side
// effects beyond allocating a value, provided their arguments are pure.
var pureConstructors = map[string]bool{
	"Object":  true,
	"Array":   true,
	"String":  true,
	"Number":  true,
	"Boolean": true,
	"RegExp":  true,
	"Error":   true,
}

// MayHaveSideEffects reports whether evaluating n may change observable
// state. Anything it cannot prove pure is treated as side-effecting.
func MayHaveSideEffects(n *Node) bool {
	if n == nil {
		return false
	}
	switch n.Kind {
	case Function, Name, This, Super, Empty, Regexp, LabelName,
		Number, BigInt, String, True, False, Null:
		return false

	case Var, Let, Const:
		for c := n.FirstChild; c != nil; c = c.Next {
			if c.HasChildren() {
				return true
			}
		}
		return false

	case Call, New, TaggedTemplate:
		if !isPureCallee(n) {
			return true
		}
		for c := n.FirstChild.Next; c != nil; c = c.Next {
			if MayHaveSideEffects(c) {
				return true
			}
		}
		return false

	case GetProp:
		// Only well-known constants are readable without running a getter.
		return !(n.FirstChild.Kind == Name && n.FirstChild.Str == "Math")

	case GetElem, Assign, AssignOp, Inc, Dec, Delete, Yield, Await,
		Throw, Pattern, DestructuringLHS, Class, Import, Export, Other:
		return true

	case Spread:
		if n.FirstChild.Kind != ArrayLit {
			return true
		}

	case Template:
		for c := n.FirstChild; c != nil; c = c.Next {
			if !c.Kind.IsLiteral() {
				return true
			}
		}
		return false
	}

	for c := n.FirstChild; c != nil; c = c.Next {
		if MayHaveSideEffects(c) {
			return true
		}
	}
	return false
}

func isPureCallee(call *Node) bool {
	callee := call.FirstChild
	if callee == nil {
		return false
	}
	switch callee.Kind {
	case Name:
		return pureConstructors[callee.Str]
	case GetProp:
		return callee.FirstChild.Kind == Name && callee.FirstChild.Str == "Math" && callee.Str != "random"
	}
	return false
}
