package types

// Hierarchy resolves a class name to its superclass name. ok is false for
// names that are not classes; super is empty for the root class.
type Hierarchy interface {
	SuperClass(name string) (super string, ok bool)
}

// ScopeHierarchy reads class entries from the global scope.
type ScopeHierarchy struct {
	Globals *Scope
}

func (h ScopeHierarchy) SuperClass(name string) (string, bool) {
	entry, ok := h.Globals.Get(name)
	if !ok {
		return "", false
	}
	class, ok := entry.(*ClassType)
	if !ok {
		return "", false
	}
	return class.Super, true
}

// IsAncestor reports whether parent is child or one of its ancestors. Unknown
// class names are never ancestors of anything but themselves.
func IsAncestor(h Hierarchy, parent, child ValueType) bool {
	if parent == nil || child == nil {
		return false
	}
	if Equal(parent, child) {
		return true
	}
	if parent == Object && IsPermissiveType(child) {
		return true
	}
	parentClass, ok := parent.(ClassValueType)
	if !ok {
		return false
	}
	childClass, ok := child.(ClassValueType)
	if !ok {
		return false
	}
	name := childClass.Name
	for {
		super, ok := h.SuperClass(name)
		if !ok || super == "" {
			return false
		}
		if super == parentClass.Name {
			return true
		}
		name = super
	}
}

// classChain returns the superclass chain of name, root first. ok is false
// when name is not a known class.
func classChain(h Hierarchy, name string) (chain []string, ok bool) {
	if _, ok = h.SuperClass(name); !ok {
		return nil, false
	}
	for name != "" {
		chain = append(chain, name)
		name, _ = h.SuperClass(name)
	}
	for i, j := 0, len(chain)-1; i < j; i, j = i+1, j-1 {
		chain[i], chain[j] = chain[j], chain[i]
	}
	return chain, true
}

// CommonAncestor joins two value types. nil is the identity. Two known class
// types join at the deepest class on both superclass chains; everything else
// joins by assignability, falling back to object.
func CommonAncestor(h Hierarchy, t1, t2 ValueType) ValueType {
	if t1 == nil {
		return t2
	}
	if t2 == nil || Equal(t1, t2) {
		return t1
	}
	class1, ok1 := t1.(ClassValueType)
	class2, ok2 := t2.(ClassValueType)
	if ok1 && ok2 {
		chain1, known1 := classChain(h, class1.Name)
		chain2, known2 := classChain(h, class2.Name)
		if known1 && known2 {
			var common ValueType = Object
			for i := 0; i < len(chain1) && i < len(chain2) && chain1[i] == chain2[i]; i++ {
				common = ClassValueType{Name: chain1[i]}
			}
			return common
		}
	}
	if IsTypeCompatible(h, t1, t2) {
		return t1
	}
	if IsTypeCompatible(h, t2, t1) {
		return t2
	}
	return Object
}

// IsTypeCompatible reports whether a value of type value may be assigned to
// a location of type target.
func IsTypeCompatible(h Hierarchy, target, value ValueType) bool {
	if IsAncestor(h, target, value) {
		return true
	}
	if target == nil || value == nil {
		return false
	}
	if !IsSpecialType(target) && value == None {
		return true
	}
	targetList, targetIsList := target.(ListValueType)
	if !targetIsList {
		return false
	}
	if value == Empty {
		return !IsListType(targetList.Element)
	}
	valueList, valueIsList := value.(ListValueType)
	return valueIsList && valueList.Element == None && IsTypeCompatible(h, targetList.Element, None)
}
