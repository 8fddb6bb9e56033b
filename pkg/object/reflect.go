package object

import (
	"slices"

	"github.com/cockroachdb/errors"
)

var ErrIndex = errors.New("index error")

// Dir lists the attribute names of obj, sorted, without running any
// dynamic attribute hook.
func Dir(obj Object) []string {
	var names []string
	switch v := obj.(type) {
	case *Module:
		names = namespaceKeys(v.Dict)
	case *Instance:
		names = append(namespaceKeys(v.Dict), classAttrNames(v.Cls)...)
	case *Class:
		names = classAttrNames(v)
	default:
		names = classAttrNames(obj.Class())
	}
	slices.Sort(names)
	return slices.Compact(names)
}

// ClassMembers lists the names defined on cls and all of its bases.
func ClassMembers(cls *Class) []string {
	names := classAttrNames(cls)
	slices.Sort(names)
	return slices.Compact(names)
}

func classAttrNames(cls *Class) []string {
	names := namespaceKeys(cls.Attrs)
	for _, base := range cls.Bases {
		names = append(names, classAttrNames(base)...)
	}
	return names
}

func namespaceKeys(ns Namespace) []string {
	names := make([]string, 0, len(ns))
	for name := range ns {
		names = append(names, name)
	}
	return names
}

// IsCallable reports whether obj can be called. Like Dir it never runs
// dynamic attribute hooks.
func IsCallable(obj Object) bool {
	switch v := obj.(type) {
	case *Func, *Class:
		return true
	case *Instance:
		_, ok := v.Cls.Lookup("__call__")
		return ok
	}
	return false
}

// GetAttr reads attribute name of obj. Properties run their getter and
// a class's Getattr hook runs when normal lookup fails, so this may
// execute host code.
func GetAttr(obj Object, name string) (Object, error) {
	if name == "__class__" {
		return obj.Class(), nil
	}
	switch v := obj.(type) {
	case *Module:
		if attr, ok := v.Dict[name]; ok {
			return attr, nil
		}
		return nil, errors.Wrapf(ErrAttribute, "module '%s' has no attribute '%s'", v.Name, name)
	case *Class:
		if attr, ok := v.Lookup(name); ok {
			return attr, nil
		}
		if attr, ok := v.Class().Lookup(name); ok {
			return bindAttr(obj, attr)
		}
		return nil, errors.Wrapf(ErrAttribute, "type object '%s' has no attribute '%s'", v.Name, name)
	case *Instance:
		if attr, ok := v.Dict[name]; ok {
			return attr, nil
		}
	}
	cls := obj.Class()
	if attr, ok := cls.Lookup(name); ok {
		return bindAttr(obj, attr)
	}
	if hook := cls.getattrHook(); hook != nil {
		return hook(obj, name)
	}
	return nil, errors.Wrapf(ErrAttribute, "'%s' object has no attribute '%s'", cls.Name, name)
}

func bindAttr(self, attr Object) (Object, error) {
	switch a := attr.(type) {
	case *Property:
		if a.Get == nil {
			return nil, errors.Wrap(ErrAttribute, "unreadable attribute")
		}
		return a.Get(self)
	case *Func:
		return a.Bind(self), nil
	}
	return attr, nil
}

// Call invokes obj with the given arguments.
func Call(obj Object, args []Object, kwargs map[string]Object) (Object, error) {
	switch v := obj.(type) {
	case *Func:
		if v.Impl == nil {
			return nil, errors.Wrapf(ErrType, "%s() cannot be called from the completer", v.Name)
		}
		return v.Impl(args, kwargs)
	case *Class:
		if v.Construct != nil {
			return v.Construct(args, kwargs)
		}
		inst := NewInstance(v)
		if init, ok := v.Lookup("__init__"); ok {
			if f, ok := init.(*Func); ok && f.Impl != nil {
				if _, err := f.Bind(inst).Impl(args, kwargs); err != nil {
					return nil, err
				}
			}
		}
		return inst, nil
	case *Instance:
		if call, ok := v.Cls.Lookup("__call__"); ok {
			if f, ok := call.(*Func); ok {
				return Call(f.Bind(v), args, kwargs)
			}
		}
	}
	return nil, errors.Wrapf(ErrType, "'%s' object is not callable", obj.Class().Name)
}

// Subscript evaluates obj[key].
func Subscript(obj, key Object) (Object, error) {
	switch v := obj.(type) {
	case *Dict:
		return v.Get(key)
	case *List:
		return indexSeq(v.Items, key, "list")
	case Tuple:
		return indexSeq(v, key, "tuple")
	case Str:
		runes := []rune(string(v))
		chars := make([]Object, len(runes))
		for i, r := range runes {
			chars[i] = Str(string(r))
		}
		return indexSeq(chars, key, "string")
	case *Instance:
		if getitem, ok := v.Cls.Lookup("__getitem__"); ok {
			if f, ok := getitem.(*Func); ok {
				return Call(f.Bind(v), []Object{key}, nil)
			}
		}
	}
	return nil, errors.Wrapf(ErrType, "'%s' object is not subscriptable", obj.Class().Name)
}

func indexSeq(items []Object, key Object, kind string) (Object, error) {
	var i int64
	switch k := key.(type) {
	case Int:
		i = int64(k)
	case Bool:
		if k {
			i = 1
		}
	default:
		return nil, errors.Wrapf(ErrType, "%s indices must be integers, not %s", kind, key.Class().Name)
	}
	if i < 0 {
		i += int64(len(items))
	}
	if i < 0 || i >= int64(len(items)) {
		return nil, errors.Wrapf(ErrIndex, "%s index out of range", kind)
	}
	return items[i], nil
}

// Iterate returns the items obj yields when iterated.
func Iterate(obj Object) ([]Object, error) {
	switch v := obj.(type) {
	case *List:
		return append([]Object(nil), v.Items...), nil
	case Tuple:
		return append([]Object(nil), v...), nil
	case *Set:
		return append([]Object(nil), v.Items...), nil
	case *Dict:
		return v.Keys(), nil
	case Str:
		items := make([]Object, 0, len(v))
		for _, r := range string(v) {
			items = append(items, Str(string(r)))
		}
		return items, nil
	case Bytes:
		items := make([]Object, len(v))
		for i := 0; i < len(v); i++ {
			items[i] = Int(v[i])
		}
		return items, nil
	}
	return nil, errors.Wrapf(ErrType, "'%s' object is not iterable", obj.Class().Name)
}
