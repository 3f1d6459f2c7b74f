// Package domain defines the challenge ledger entities, their positional
// schemas, the assembled challenge aggregate and the phase lifecycle rules
// that operate on it.
//
// Every entity kind implements ledger.Entity with a package-level
// descriptor; field order in those descriptors is the ledger method
// signature. Numeric zero and empty strings are the ledger's absent value,
// so optional numbers are modelled as pointers or treated as unset at zero.
package domain
