// Copyright 2026 The repkg Authors
// SPDX-License-Identifier: MIT

/*
Package lua40 decodes precompiled Lua 4.0 chunks
(the format produced by luac 4.0 and embedded in the game's script packs)
into [Function] prototype trees.

Unlike later Lua versions, a 4.0 chunk's header describes
the word sizes, field widths, and byte order used by the rest of the chunk,
so every primitive read is parameterized by the [Header].
Decoding is a pure function of the input bytes:
the same chunk always produces the same tree or the same error.
*/
package lua40
