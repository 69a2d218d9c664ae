package subgraph

const tokenFields = `id symbol decimals derivedETH`

const tickFields = `tickIdx feeGrowthOutside0X128 feeGrowthOutside1X128`

const positionQuery = `query position($id: ID!) {
  position(id: $id) {
    id
    owner
    liquidity
    pool { id feeTier tick sqrtPrice feeGrowthGlobal0X128 feeGrowthGlobal1X128 }
    token0 { ` + tokenFields + ` }
    token1 { ` + tokenFields + ` }
    tickLower { ` + tickFields + ` }
    tickUpper { ` + tickFields + ` }
    transaction { timestamp }
  }
  bundle(id: "1") { ethPriceUSD }
}`

const positionSnapshotsQuery = `query snapshots($id: String!, $first: Int!, $skip: Int!) {
  positionSnapshots(where: {position: $id}, orderBy: timestamp, orderDirection: asc, first: $first, skip: $skip) {
    timestamp
    liquidity
    depositedToken0
    depositedToken1
    withdrawnToken0
    withdrawnToken1
    collectedFeesToken0
    collectedFeesToken1
    feeGrowthInside0LastX128
    feeGrowthInside1LastX128
  }
}`

const poolDaysQuery = `query poolDays($pool: String!, $from: Int!, $first: Int!, $skip: Int!) {
  poolDayDatas(where: {pool: $pool, date_gte: $from}, orderBy: date, orderDirection: asc, first: $first, skip: $skip) {
    date
    tick
    feeGrowthGlobal0X128
    feeGrowthGlobal1X128
  }
}`

const tickDaysQuery = `query tickDays($tick: String!, $from: Int!, $first: Int!, $skip: Int!) {
  entries: tickDayDatas(where: {tick: $tick, date_gte: $from}, orderBy: date, orderDirection: asc, first: $first, skip: $skip) {
    date
    feeGrowthOutside0X128
    feeGrowthOutside1X128
  }
  before: tickDayDatas(where: {tick: $tick, date_lt: $from}, orderBy: date, orderDirection: desc, first: 1) {
    date
    feeGrowthOutside0X128
    feeGrowthOutside1X128
  }
}`

const poolStateQuery = `query poolState($pool: ID!, $lower: ID!, $upper: ID!, $block: Block_height) {
  pool(id: $pool, block: $block) { tick sqrtPrice feeGrowthGlobal0X128 feeGrowthGlobal1X128 }
  lower: tick(id: $lower, block: $block) { ` + tickFields + ` }
  upper: tick(id: $upper, block: $block) { ` + tickFields + ` }
}`

const poolTokensQuery = `query poolTokens($pool: ID!) {
  pool(id: $pool) {
    feeTier
    token0 { ` + tokenFields + ` }
    token1 { ` + tokenFields + ` }
  }
  bundle(id: "1") { ethPriceUSD }
}`

const blockQuery = `query block($ts: BigInt!) {
  blocks(first: 1, orderBy: timestamp, orderDirection: desc, where: {timestamp_lte: $ts}) {
    number
    timestamp
  }
}`
