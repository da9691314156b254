// Package engine runs a load: it brings a document's dependencies onto the
// classpath, prepares its imports and controller, resolves the object tree
// and injects the identified instances into the controller, reporting
// progress along the way.
package engine
