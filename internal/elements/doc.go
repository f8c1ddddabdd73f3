/*
Package elements tracks the live elements a driver session has handed out
references to.

Each registered element gets an opaque UUID identifier; the driver's JSON
surface only ever sees that identifier, wrapped under the reserved element
reference key. Lookups return a borrowed handle plus the attachment facts
the script engine validates at the moment of use: whether the element is
still in its document's tree, and which document owns it.
*/
package elements
