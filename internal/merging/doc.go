// Package merging three-way merges skill files and drives git's resolution memory (rerere).
//
// A skill file is merged from three inputs:
// 1. Base: the version the installed skill was originally derived from.
// 2. Current ("ours"): the file on disk, possibly edited locally.
// 3. Incoming ("theirs"): the new version of the skill being applied.
//
// When the merge conflicts, the package manufactures the repository state a native
// `git merge` would have left behind (unmerged stage 1/2/3 index entries plus the
// MERGE_HEAD / MERGE_MSG session markers) so that `git rerere` can record the conflict
// and replay a previously recorded resolution. Afterwards the session is torn down again,
// resetting only the merged path so unrelated staged work survives.
//
// All repository access goes through the VersionControl interface, implemented by
// ExecBackend (native git binary) and NativeBackend (go-git + diff3, rerere still via git).
// Every call receives an explicit RepoContext; nothing here holds process-wide state.
// Operations against one repository must be serialised by the caller; Engine does this
// with an inter-process lock file in the repository's state directory.
package merging
