package contractclient

// These ABI fragments declare exactly the methods, views, and events
// spec.md §6 names for each on-chain contract. They are hand-maintained
// JSON (no bytecode, no abigen pass) because the contracts themselves are
// out of scope (spec.md §1): only their transaction/view/event shapes are
// specified here, consumed through go-ethereum's bind.BoundContract the way
// a trimmed abigen binding would.

const controllerABI = `[
  {"type":"function","name":"nodeRegister","stateMutability":"nonpayable",
   "inputs":[{"name":"idPublicKey","type":"bytes"}],"outputs":[]},
  {"type":"function","name":"commitDkg","stateMutability":"nonpayable",
   "inputs":[
     {"name":"groupIndex","type":"uint32"},
     {"name":"groupEpoch","type":"uint32"},
     {"name":"publicKey","type":"bytes"},
     {"name":"partialPublicKey","type":"bytes"},
     {"name":"disqualifiedNodes","type":"address[]"}
   ],"outputs":[]},
  {"type":"function","name":"postProcessDkg","stateMutability":"nonpayable",
   "inputs":[{"name":"groupIndex","type":"uint32"},{"name":"groupEpoch","type":"uint32"}],"outputs":[]},
  {"type":"function","name":"getGroup","stateMutability":"view",
   "inputs":[{"name":"index","type":"uint32"}],
   "outputs":[{"name":"","type":"tuple","components":[
     {"name":"index","type":"uint32"},
     {"name":"epoch","type":"uint32"},
     {"name":"size","type":"uint32"},
     {"name":"threshold","type":"uint32"},
     {"name":"isReady","type":"bool"},
     {"name":"publicKey","type":"bytes"},
     {"name":"members","type":"address[]"},
     {"name":"committers","type":"address[]"}
   ]}]},
  {"type":"function","name":"getNode","stateMutability":"view",
   "inputs":[{"name":"nodeAddress","type":"address"}],
   "outputs":[{"name":"","type":"tuple","components":[
     {"name":"idAddress","type":"address"},
     {"name":"dkgPublicKey","type":"bytes"},
     {"name":"state","type":"bool"},
     {"name":"pendingUntilBlock","type":"uint256"}
   ]}]},
  {"type":"function","name":"getCoordinator","stateMutability":"view",
   "inputs":[{"name":"groupIndex","type":"uint32"}],"outputs":[{"name":"","type":"address"}]},
  {"type":"event","name":"DKGTask","anonymous":false,"inputs":[
     {"name":"groupIndex","type":"uint32","indexed":false},
     {"name":"epoch","type":"uint32","indexed":false},
     {"name":"size","type":"uint32","indexed":false},
     {"name":"threshold","type":"uint32","indexed":false},
     {"name":"members","type":"address[]","indexed":false},
     {"name":"coordinatorAddress","type":"address","indexed":false},
     {"name":"blockNumber","type":"uint256","indexed":false}
  ]}
]`

const coordinatorABI = `[
  {"type":"function","name":"publish","stateMutability":"nonpayable",
   "inputs":[{"name":"value","type":"bytes"}],"outputs":[]},
  {"type":"function","name":"getShares","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"bytes[]"}]},
  {"type":"function","name":"getResponses","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"bytes[]"}]},
  {"type":"function","name":"getJustifications","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"bytes[]"}]},
  {"type":"function","name":"getParticipants","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"address[]"}]},
  {"type":"function","name":"getDkgKeys","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"bytes[]"}]},
  {"type":"function","name":"inPhase","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"int8"}]}
]`

const adapterABI = `[
  {"type":"function","name":"fulfillRandomness","stateMutability":"nonpayable",
   "inputs":[
     {"name":"groupIndex","type":"uint32"},
     {"name":"requestId","type":"bytes32"},
     {"name":"signature","type":"bytes"},
     {"name":"partialSignatures","type":"bytes[]"}
   ],"outputs":[]},
  {"type":"function","name":"isTaskPending","stateMutability":"view",
   "inputs":[{"name":"requestId","type":"bytes32"}],"outputs":[{"name":"","type":"bool"}]},
  {"type":"event","name":"RandomnessRequest","anonymous":false,"inputs":[
     {"name":"requestId","type":"bytes32","indexed":false},
     {"name":"sender","type":"address","indexed":false},
     {"name":"subId","type":"uint64","indexed":false},
     {"name":"seed","type":"uint256","indexed":false},
     {"name":"requestConfirmations","type":"uint16","indexed":false},
     {"name":"callbackGasLimit","type":"uint32","indexed":false},
     {"name":"callbackMaxGasPrice","type":"uint256","indexed":false},
     {"name":"groupIndex","type":"uint32","indexed":false}
  ]}
]`
