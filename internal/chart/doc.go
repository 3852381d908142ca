// Package chart turns logjam chart descriptors into pie charts.
//
// A Pie is built once from a descriptor and a palette.Source; colors are
// assigned at build time so re-rendering never consumes more colors. Render
// draws the pie for the terminal and Export writes it as PNG or SVG.
package chart
