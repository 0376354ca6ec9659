package reflectx

import "reflect"

// DynamicObject is the trait a host type implements to expose ad-hoc,
// name-addressed members discovered at runtime. The binder checks for the
// trait at bind time to decide whether a failed static member lookup may
// fall back to a dynamic node; the actual lookup happens at invocation.
//
// Dynamic member names are matched case-sensitively regardless of the
// interpreter's case-sensitivity setting.
type DynamicObject interface {
	// DynamicMember returns the member value for an exact name, and
	// whether the member exists.
	DynamicMember(name string) (any, bool)

	// DynamicMemberNames enumerates the current member names.
	DynamicMemberNames() []string
}

var dynamicObjectType = reflect.TypeOf((*DynamicObject)(nil)).Elem()

// IsDynamic reports whether values of type t advertise dynamic-member
// support, directly or through their pointer type.
func IsDynamic(t reflect.Type) bool {
	if t == nil {
		return false
	}

	if t.Implements(dynamicObjectType) {
		return true
	}

	return t.Kind() != reflect.Ptr &&
		t.Kind() != reflect.Interface &&
		reflect.PtrTo(t).Implements(dynamicObjectType)
}

// Probe looks up name on a dynamic-capable instance, case-sensitively.
// The second result is false when obj does not implement the trait or has
// no such member.
func Probe(obj any, name string) (any, bool) {
	d, ok := asDynamic(obj)
	if !ok {
		return nil, false
	}

	return d.DynamicMember(name)
}

// DynamicNames enumerates member names on a dynamic-capable instance.
func DynamicNames(obj any) []string {
	d, ok := asDynamic(obj)
	if !ok {
		return nil
	}

	return d.DynamicMemberNames()
}

func asDynamic(obj any) (DynamicObject, bool) {
	if d, ok := obj.(DynamicObject); ok {
		return d, true
	}

	rv := reflect.ValueOf(obj)
	if !rv.IsValid() || rv.Kind() == reflect.Ptr {
		return nil, false
	}

	pv := reflect.New(rv.Type())
	pv.Elem().Set(rv)

	d, ok := pv.Interface().(DynamicObject)

	return d, ok
}
