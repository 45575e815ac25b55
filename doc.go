// Copyright 2017 Pilosa Corp.
//
// Redistribution and use in source and binary forms, with or without
// modification, are permitted provided that the following conditions
// are met:
//
// 1. Redistributions of source code must retain the above copyright
// notice, this list of conditions and the following disclaimer.
//
// 2. Redistributions in binary form must reproduce the above copyright
// notice, this list of conditions and the following disclaimer in the
// documentation and/or other materials provided with the distribution.
//
// 3. Neither the name of the copyright holder nor the names of its
// contributors may be used to endorse or promote products derived
// from this software without specific prior written permission.
//
// THIS SOFTWARE IS PROVIDED BY THE COPYRIGHT HOLDERS AND
// CONTRIBUTORS "AS IS" AND ANY EXPRESS OR IMPLIED WARRANTIES,
// INCLUDING, BUT NOT LIMITED TO, THE IMPLIED WARRANTIES OF
// MERCHANTABILITY AND FITNESS FOR A PARTICULAR PURPOSE ARE
// DISCLAIMED. IN NO EVENT SHALL THE COPYRIGHT HOLDER OR
// CONTRIBUTORS BE LIABLE FOR ANY DIRECT, INDIRECT, INCIDENTAL,
// SPECIAL, EXEMPLARY, OR CONSEQUENTIAL DAMAGES (INCLUDING,
// BUT NOT LIMITED TO, PROCUREMENT OF SUBSTITUTE GOODS OR
// SERVICES; LOSS OF USE, DATA, OR PROFITS; OR BUSINESS
// INTERRUPTION) HOWEVER CAUSED AND ON ANY THEORY OF LIABILITY,
// WHETHER IN CONTRACT, STRICT LIABILITY, OR TORT (INCLUDING
// NEGLIGENCE OR OTHERWISE) ARISING IN ANY WAY OUT OF THE USE
// OF THIS SOFTWARE, EVEN IF ADVISED OF THE POSSIBILITY OF SUCH
// DAMAGE.

// wdk is the Wearable Data Kit! It contains the pieces needed to turn raw
// per-participant activity exports into clean, validated tables.
//
// Of principal importance in the WDK is the Operator. Everything which touches
// data is an Operator, and pipelines are simply Operators built out of other
// Operators.
//
// 1. Table
//
//    A wdk.Table is an ordered set of records stored column by column. Every
//    record belongs to a participant and was observed at a timestamp; the
//    names of those two key columns travel with the table. Tables come out of
//    Readers (see the csv, json, aws/s3 and kafka sub-packages) and are never
//    modified in place by an Operator - an Operator which needs to change a
//    table clones it first, and the clone belongs to whoever receives it.
//
// 2. Operator
//
//    An Operator consumes zero or more tables and returns some number of
//    tables. Sources take nothing and return what they read, transforms
//    return one table per input, and joins collapse many inputs into one.
//    Operators report missing columns with a MissingColumnError and badly
//    shaped input with a ValidationError. Nothing in this package retries.
//
// 3. Composition
//
//    Sequence threads the outputs of one Operator into the next. Broadcast
//    hands copies of the same inputs to several Operators. FanIn does a
//    Broadcast and feeds all the branch outputs to a join Operator. Map
//    applies one Operator to each input independently, optionally on a pool
//    of goroutines, and always returns outputs in input order. Reduce folds a
//    combining Operator over its inputs, optionally starting from a seed.
//
// 4. Validation
//
//    The validate package holds Operators which flag epochs, days and
//    participants which fail data quality rules in a bitmask column, along
//    with Operators which report on and prune the flagged data. The interval
//    package merges fragmented activity intervals, and the filter package
//    selects participants, epochs and days.
//
// Variables allow a handle (a report, a model) to be shared between
// otherwise separate pipelines, and Instrument wraps any Operator with
// statistics and debug logging.
package wdk
