// Package catalog implements the lending catalog on top of a record store and an
// id allocator.
//
// Every record is in one of two states:
//
//	        Borrow(id, caller)
//	Available ----------------> Borrowed
//	          <----------------
//	             Return(id)
//
// Add creates a record in the Available state, Delete removes a record regardless of
// its state. An illegal transition (borrowing a borrowed record or returning an
// available one) fails with RetCInvalidOperation and leaves the record unchanged.
//
// Errors are returned as *Error values carrying a RetCode, so callers (and the RPC
// layer) can distinguish missing records, invalid input, illegal transitions and
// internal failures.
//
// Thread-safety: A catalog runs every operation under a single mutex. An operation
// either fully succeeds and is fully visible or fails without any mutation.
package catalog
