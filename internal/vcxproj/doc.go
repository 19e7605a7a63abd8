// Package vcxproj reads and patches MSBuild C++ project files.
//
// Project files are walked as an XML token stream rather than matched with
// regular expressions, so lookups are scoped to the labelled PropertyGroup
// they belong to. Patches splice new text into the original bytes at the
// offsets reported by the decoder and leave every other byte untouched.
package vcxproj
