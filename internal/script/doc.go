/*
Package script executes driver-level JavaScript against the embedded goja
engine and marshals values between the JSON command representation and the
engine's native one.

# Overview

A Script owns source text and a fixed-size, positionally filled argument
list. Execution wraps the source as an anonymous function under a
collision-resistant binding, retrieves the resulting callable and invokes it
through the host dispatch convention: arguments packed in reverse order with
the global receiver in the final slot.

Composite JSON arguments (arrays, objects) cannot be passed to the host
dispatch surface directly, which accepts only scalar positional values. The
marshaler reconstructs them inside the engine with synthetic invocations: a
generated function body rebuilds the composite from its positional
parameters, one nested synchronous execution per composite level,
innermost first.

# Execution modes

Execute blocks the caller for the full host evaluation. ExecuteAsync hands
the invocation to a dedicated one-shot worker and polls for completion up to
a caller timeout; on expiry the worker is detached and may finish unobserved.
Worker bootstrap is serialized by a process-local signal so at most one
handshake is in flight at a time.

# Failure contract

All operations report a Status code. No panics or errors cross the package
boundary for script-level failures; a mid-walk marshaling failure leaves the
argument list unusable and the Script must be discarded.
*/
package script
