// Package vm provides the VM operations behind the vmctl commands.
//
// Each operation is a fixed sequence of libvirt tool invocations:
//   - Clone: Create a copy-on-write overlay of a VM's disk and define a new
//     VM on it
//   - Destroy: Stop and undefine a VM, then delete its backing files
//   - IP: Look up a VM's interface addresses in the ARP cache
//   - List: List all VMs and their state
//   - Check: Verify the tools and the libvirt daemon are reachable
//
// Dependency Injection:
//
// Every exported operation builds its dependencies from a session and
// delegates to an unexported xxxWithDeps function that takes interfaces
// (see interfaces.go). Tests drive the xxxWithDeps functions with mocks.
//
// Error Handling:
//
// Failures of an external tool are returned with the tool's exit status
// preserved (see runner.ExitError), so it becomes vmctl's exit status.
// Steps documented as best-effort log a warning and continue.
package vm
