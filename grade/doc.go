// Package grade holds the Grade value type and the passing-status service that
// averages a student's assignment grades.
//
// Letter grades are not modelled here; a Grade only carries its percentage.
package grade
