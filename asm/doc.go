// Package asm is a small macro assembler for the vica instruction set.
//
// Each line holds at most one statement; ';' starts a comment and operands may
// be separated by commas or spaces:
//
//	        .equ COUNT 5
//	start:  li   r2, COUNT
//	        li   r3, 1
//	loop:   add  r1, r1, r3
//	        cmp  r1, r2
//	        jlt  r4, loop      ; li r4, loop + jlt r4
//	        halt r4
//
// Directives are .equ, .org, .byte, .word, .macro and .endm. Compile time
// expressions are written as $(...) and evaluated with Starlark against the
// equates and labels defined so far. A jump with a second operand loads the
// target into the named register first, and halt parks the machine on a jump
// to itself.
package asm
